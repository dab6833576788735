package workers

import (
	"context"
	"log/slog"
	"time"

	application "pms/contexts/identity-access/user-sync-service/application"
	"pms/contexts/identity-access/user-sync-service/ports"
)

// DedupJanitor removes expired replay reservations so the dedup table does
// not grow without bound. Driven by the worker poll loop.
type DedupJanitor struct {
	Dedup  ports.EventDedupStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (j DedupJanitor) RunOnce(ctx context.Context) error {
	if j.Dedup == nil {
		return nil
	}
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}

	purged, err := j.Dedup.PurgeExpired(ctx, now)
	if err != nil {
		application.ResolveLogger(j.Logger).Error("dedup purge failed",
			"event", "identity_sync_dedup_purge_failed",
			"module", "identity-access/user-sync-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if purged > 0 {
		application.ResolveLogger(j.Logger).Info("expired dedup reservations purged",
			"event", "identity_sync_dedup_purged",
			"module", "identity-access/user-sync-service",
			"layer", "worker",
			"purged", purged,
		)
	}
	return nil
}
