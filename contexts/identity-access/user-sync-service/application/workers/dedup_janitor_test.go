package workers

import (
	"context"
	"testing"
	"time"

	"pms/contexts/identity-access/user-sync-service/adapters/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func TestDedupJanitorPurgesExpired(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := store.MarkProcessed(ctx, "evt_old", "hash", base, base.Add(time.Minute)); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkProcessed(ctx, "evt_live", "hash", base, base.Add(time.Hour)); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	janitor := DedupJanitor{Dedup: store, Clock: fixedClock{now: base.Add(30 * time.Minute)}}
	if err := janitor.RunOnce(ctx); err != nil {
		t.Fatalf("janitor failed: %v", err)
	}

	processed, err := store.WasProcessed(ctx, "evt_live", base.Add(30*time.Minute))
	if err != nil || !processed {
		t.Fatalf("live reservation must survive purge: %v %v", processed, err)
	}
	processed, err = store.WasProcessed(ctx, "evt_old", base.Add(30*time.Minute))
	if err != nil || processed {
		t.Fatalf("expired reservation must be gone: %v %v", processed, err)
	}
}

func TestDedupJanitorWithoutStoreIsNoOp(t *testing.T) {
	janitor := DedupJanitor{}
	if err := janitor.RunOnce(context.Background()); err != nil {
		t.Fatalf("nil dedup store must be a no-op: %v", err)
	}
}
