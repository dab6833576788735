package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	application "pms/contexts/identity-access/user-sync-service/application"
	"pms/contexts/identity-access/user-sync-service/application/commands"
	"pms/contexts/identity-access/user-sync-service/contracts"
	"pms/contexts/identity-access/user-sync-service/ports"
)

// IdentitySyncConsumer binds the three identity lifecycle topics to their
// handlers. Delivery is at-least-once and unordered; every envelope is
// handled independently and a handler error is returned to the transport
// unchanged so its retry policy governs redelivery.
//
// Dedup is optional and only ever short-circuits envelopes that already
// finished successfully: failed envelopes and not-found updates are never
// recorded, so they stay redeliverable.
type IdentitySyncConsumer struct {
	Subscriber    ports.EventSubscriber
	Create        commands.SyncCreateUseCase
	Update        commands.SyncUpdateUseCase
	Delete        commands.SyncDeleteUseCase
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c IdentitySyncConsumer) Start(ctx context.Context) error {
	topics := []string{
		ports.EventIdentityCreate,
		ports.EventIdentityUpdate,
		ports.EventIdentityDelete,
	}
	for _, topic := range topics {
		if err := c.Subscriber.Subscribe(ctx, topic, c.ConsumerGroup, c.Handle); err != nil {
			return err
		}
	}
	return nil
}

func (c IdentitySyncConsumer) Handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := c.now()

	if c.Dedup != nil && envelope.EventID != "" {
		processed, err := c.Dedup.WasProcessed(ctx, envelope.EventID, now)
		if err != nil {
			return err
		}
		if processed {
			logger.Info("skipping replayed identity event",
				"event", "identity_sync_event_replayed",
				"module", "identity-access/user-sync-service",
				"layer", "worker",
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"external_id", contracts.ExtractExternalID(envelope.Data),
			)
			return nil
		}
	}

	var err error
	record := true
	switch envelope.EventType {
	case ports.EventIdentityCreate:
		_, err = c.Create.Execute(ctx, envelope.Data)
	case ports.EventIdentityUpdate:
		var result ports.UpdateResult
		result, err = c.Update.Execute(ctx, envelope.Data)
		// A not-found update is acknowledged but never recorded, so a
		// transport redelivery can still converge once the create lands.
		if err == nil && !result.Success {
			record = false
		}
	case ports.EventIdentityDelete:
		_, err = c.Delete.Execute(ctx, envelope.Data)
	default:
		logger.Warn("dropping event with unknown type",
			"event", "identity_sync_unknown_event_type",
			"module", "identity-access/user-sync-service",
			"layer", "worker",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
		return nil
	}
	if err != nil {
		logger.Error("identity event processing failed",
			"event", "identity_sync_event_failed",
			"module", "identity-access/user-sync-service",
			"layer", "worker",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"correlation_id", envelope.CorrelationID,
			"external_id", contracts.ExtractExternalID(envelope.Data),
			"error", err.Error(),
		)
		return err
	}

	if record && c.Dedup != nil && envelope.EventID != "" {
		if err := c.Dedup.MarkProcessed(ctx, envelope.EventID, hashPayload(envelope.Data), now, now.Add(c.dedupTTL())); err != nil {
			// The write already committed; a failed reservation only means a
			// replay would re-run an idempotent handler.
			logger.Warn("recording processed identity event failed",
				"event", "identity_sync_dedup_mark_failed",
				"module", "identity-access/user-sync-service",
				"layer", "worker",
				"event_id", envelope.EventID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

func (c IdentitySyncConsumer) now() time.Time {
	if c.Clock == nil {
		return time.Now().UTC()
	}
	return c.Clock.Now().UTC()
}

func (c IdentitySyncConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
