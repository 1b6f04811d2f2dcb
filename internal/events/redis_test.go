package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestChannel(t *testing.T) (*RedisChannel, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisChannel(client, "inventory.processing.products"), mr
}

func TestNewImportEvent(t *testing.T) {
	jobID := uuid.New()
	event := NewImportEvent(jobID)

	if event.JobID != jobID.String() {
		t.Fatalf("unexpected job id %q", event.JobID)
	}
	if event.EventType != EventTypeProductImport {
		t.Fatalf("unexpected event type %q", event.EventType)
	}
	if _, err := time.Parse(time.RFC3339, event.Timestamp); err != nil {
		t.Fatalf("timestamp is not RFC3339: %v", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	for _, field := range []string{"history_id", "event_type", "timestamp"} {
		if _, ok := raw[field]; !ok {
			t.Fatalf("wire payload missing field %q: %s", field, payload)
		}
	}
}

func TestRedisChannelPublishListenRoundTrip(t *testing.T) {
	channel, _ := newTestChannel(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan ImportEvent, 1)
	go func() {
		_ = channel.Listen(ctx, func(_ context.Context, event ImportEvent) error {
			select {
			case received <- event:
			default:
			}
			return nil
		})
	}()

	jobID := uuid.New()
	event := NewImportEvent(jobID)

	// The subscriber may not be registered yet; keep publishing until the
	// handler sees the event or the deadline passes.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := channel.Publish(ctx, event); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
		select {
		case got := <-received:
			if got.JobID != jobID.String() {
				t.Fatalf("handler received job %q, want %q", got.JobID, jobID)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatalf("event never reached the handler")
		}
	}
}

func TestRedisChannelListenSkipsBadPayloads(t *testing.T) {
	channel, mr := newTestChannel(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan ImportEvent, 4)
	go func() {
		_ = channel.Listen(ctx, func(_ context.Context, event ImportEvent) error {
			received <- event
			return nil
		})
	}()

	jobID := uuid.New()
	good, err := json.Marshal(NewImportEvent(jobID))
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}

	// Publish through miniredis directly so the bad payloads interleave
	// deterministically before the good one.
	deadline := time.After(5 * time.Second)
	for {
		mr.Publish("inventory.processing.products", "{not json")
		mr.Publish("inventory.processing.products", `{"history_id":""}`)
		mr.Publish("inventory.processing.products", string(good))

		select {
		case got := <-received:
			if got.JobID != jobID.String() {
				t.Fatalf("a malformed payload reached the handler: %+v", got)
			}
			return
		case <-deadline:
			t.Fatalf("event never reached the handler")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestRedisChannelListenStopsOnCancel(t *testing.T) {
	channel, _ := newTestChannel(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- channel.Listen(ctx, func(_ context.Context, _ ImportEvent) error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected a context error")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Listen did not stop after cancellation")
	}
}
