package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nacholimon/opinwork-firebase/internal/app/system/events"
	"github.com/nacholimon/opinwork-firebase/internal/testutil"
	"go.uber.org/zap"
)

func TestLocalBus_DeliversToAllSubscribers(t *testing.T) {
	bus := events.NewLocalBus()

	var got []string
	bus.Subscribe(func(e events.Event) { got = append(got, "a:"+e.IdentityID) })
	bus.Subscribe(func(e events.Event) { got = append(got, "b:"+e.IdentityID) })

	if err := bus.Publish(context.Background(), events.Event{Kind: events.ProfileUpdated, IdentityID: "x"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %v", got)
	}
}

func TestLocalBus_Unsubscribe(t *testing.T) {
	bus := events.NewLocalBus()

	calls := 0
	unsubscribe := bus.Subscribe(func(events.Event) { calls++ })
	_ = bus.Publish(context.Background(), events.Event{Kind: events.IdentityUpdated})
	unsubscribe()
	unsubscribe()
	_ = bus.Publish(context.Background(), events.Event{Kind: events.IdentityUpdated})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestLocalBus_StampsTime(t *testing.T) {
	bus := events.NewLocalBus()

	var at time.Time
	bus.Subscribe(func(e events.Event) { at = e.At })
	_ = bus.Publish(context.Background(), events.Event{Kind: events.IdentitySignedIn})

	if at.IsZero() {
		t.Error("expected At to be stamped")
	}
}

func TestRedisBus_RoundTrip(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bus := events.NewRedisBus(client, "opinwork:test:"+t.Name(), zap.NewNop())

	var mu sync.Mutex
	received := make(chan events.Event, 1)
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		select {
		case received <- e:
		default:
		}
	})

	if err := bus.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := bus.Publish(ctx, events.Event{Kind: events.IdentitySignedOut, IdentityID: "id-9"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case e := <-received:
		if e.Kind != events.IdentitySignedOut || e.IdentityID != "id-9" {
			t.Errorf("unexpected event: %+v", e)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}
