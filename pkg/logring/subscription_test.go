package logring

import (
	"context"
	"testing"
	"time"
)

func TestSubscribeReceivesAppends(t *testing.T) {
	ring := NewRing(16)
	defer ring.Shutdown()

	sub := ring.Subscribe(context.Background())
	if sub == nil {
		t.Fatal("Subscribe returned nil")
	}
	defer sub.Unsubscribe()

	ring.Append("run-1", "hello")

	select {
	case entry := <-sub.Channel():
		if entry.Line != "hello" || entry.RunID != "run-1" {
			t.Errorf("Received %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for entry")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ring := NewRing(16)
	defer ring.Shutdown()

	sub := ring.Subscribe(context.Background())
	sub.Unsubscribe()

	if got := ring.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}

	// Channel is closed after unsubscribe.
	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel not closed")
	}

	// Appending afterwards must not panic.
	ring.Append("", "late line")
}

func TestContextCancelEndsSubscription(t *testing.T) {
	ring := NewRing(16)
	defer ring.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub := ring.Subscribe(ctx)
	cancel()

	// The monitor goroutine unsubscribes and closes the channel.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Channel():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Subscription not closed after context cancel")
		}
	}
}

func TestShutdownClosesAllSubscriptions(t *testing.T) {
	ring := NewRing(16)

	first := ring.Subscribe(context.Background())
	second := ring.Subscribe(context.Background())
	if ring.SubscriberCount() != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", ring.SubscriberCount())
	}

	ring.Shutdown()

	for _, sub := range []*Subscription{first, second} {
		select {
		case _, ok := <-sub.Channel():
			if ok {
				t.Error("Expected closed channel after shutdown")
			}
		case <-time.After(time.Second):
			t.Fatal("Channel not closed after shutdown")
		}
	}

	if sub := ring.Subscribe(context.Background()); sub != nil {
		t.Error("Subscribe after shutdown should return nil")
	}
}

func TestSlowSubscriberDoesNotBlockAppend(t *testing.T) {
	ring := NewRing(1024)
	defer ring.Shutdown()

	sub := ring.Subscribe(context.Background())
	defer sub.Unsubscribe()

	// Never read; the channel fills and further sends are skipped.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer*2; i++ {
			ring.Append("", "flood")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Append blocked on a slow subscriber")
	}

	if got := ring.Len(); got != subscriptionBuffer*2 {
		t.Errorf("Ring Len = %d, want %d", got, subscriptionBuffer*2)
	}
}
