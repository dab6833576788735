package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	usersync "pms/contexts/identity-access/user-sync-service"
	postgresadapter "pms/contexts/identity-access/user-sync-service/adapters/postgres"
	"pms/internal/platform/config"
	"pms/internal/platform/db"
	"pms/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Bus
	module       usersync.Module
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewBus(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	deps := usersync.Dependencies{
		Repository:    repo,
		Subscriber:    bus,
		Clock:         postgresadapter.SystemClock{},
		ConsumerGroup: cfg.ConsumerGroup,
		DedupTTL:      cfg.DedupTTL,
		Logger:        logger,
	}
	if cfg.EnableEventDedup {
		deps.Dedup = repo
	}

	return &WorkerApp{
		postgres:     pg,
		bus:          bus,
		module:       usersync.NewModule(deps),
		pollInterval: cfg.JanitorPollInterval,
		logger:       logger,
	}, nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.module.Consumer.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.module.Janitor.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}
