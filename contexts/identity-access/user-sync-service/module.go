package usersync

import (
	"log/slog"
	"time"

	"pms/contexts/identity-access/user-sync-service/adapters/memory"
	"pms/contexts/identity-access/user-sync-service/application/commands"
	"pms/contexts/identity-access/user-sync-service/application/workers"
	"pms/contexts/identity-access/user-sync-service/ports"
)

// Module is the user-sync-service composition root exposed to runtime wiring.
type Module struct {
	Consumer workers.IdentitySyncConsumer
	Janitor  workers.DedupJanitor
	Store    *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository    ports.Repository
	Dedup         ports.EventDedupStore
	Subscriber    ports.EventSubscriber
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

// NewModule wires the identity sync handlers and their consumer using
// explicit ports.
func NewModule(deps Dependencies) Module {
	createUser := commands.SyncCreateUseCase{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	updateUser := commands.SyncUpdateUseCase{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	deleteUser := commands.SyncDeleteUseCase{
		Repo:   deps.Repository,
		Logger: deps.Logger,
	}

	group := deps.ConsumerGroup
	if group == "" {
		group = "user-sync-cg"
	}

	return Module{
		Consumer: workers.IdentitySyncConsumer{
			Subscriber:    deps.Subscriber,
			Create:        createUser,
			Update:        updateUser,
			Delete:        deleteUser,
			Dedup:         deps.Dedup,
			Clock:         deps.Clock,
			ConsumerGroup: group,
			DedupTTL:      deps.DedupTTL,
			Logger:        deps.Logger,
		},
		Janitor: workers.DedupJanitor{
			Dedup:  deps.Dedup,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters.
func NewInMemoryModule(subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Dedup:      store,
		Subscriber: subscriber,
		Clock:      store,
		DedupTTL:   7 * 24 * time.Hour,
		Logger:     logger,
	})
	module.Store = store
	return module
}
