package messaging

import (
	"context"
	"testing"
	"time"

	"pms/contexts/identity-access/user-sync-service/ports"
)

func TestBusDeliversEveryPublishedEnvelope(t *testing.T) {
	bus, err := NewBus(nil, nil)
	if err != nil {
		t.Fatalf("bus construction failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.EventEnvelope, 8)
	if err := bus.Subscribe(ctx, "identity.create", "cg", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := bus.Publish(ctx, "identity.create", ports.EventEnvelope{}); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		select {
		case event := <-received:
			if event.EventID == "" {
				t.Fatal("published envelope must carry an assigned event id")
			}
			if event.EventType != "identity.create" {
				t.Fatalf("unexpected event type %q", event.EventType)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("envelope %d was never delivered", i)
		}
	}
}

func TestBusPublishBlocksInsteadOfDropping(t *testing.T) {
	full := make(chan ports.EventEnvelope, 1)
	full <- ports.EventEnvelope{EventID: "occupied"}
	bus := &Bus{
		subscribers: map[string][]chan ports.EventEnvelope{
			"identity.update": {full},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, "identity.update", ports.EventEnvelope{EventID: "evt_blocked"})
	if err != context.Canceled {
		t.Fatalf("publish against a full subscriber must wait on ctx, got %v", err)
	}
	if len(full) != 1 || (<-full).EventID != "occupied" {
		t.Fatal("blocked publish must not displace the queued envelope")
	}
}
