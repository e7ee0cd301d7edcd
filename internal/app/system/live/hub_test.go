package live

import (
	"sync"
	"testing"
	"time"
)

func recvWithin[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestHub_DeliversInOrder(t *testing.T) {
	h := NewHub[string](4)
	sub := h.Subscribe()
	defer sub.Close()

	h.Publish("SIGNED_IN")
	h.Publish("SIGNED_OUT")

	if got := recvWithin(t, sub); got != "SIGNED_IN" {
		t.Errorf("first event = %q", got)
	}
	if got := recvWithin(t, sub); got != "SIGNED_OUT" {
		t.Errorf("second event = %q", got)
	}
}

func TestHub_BurstBeyondBufferIsNotLost(t *testing.T) {
	h := NewHub[int](1)
	sub := h.Subscribe()
	defer sub.Close()

	const n = 40
	for i := 0; i < n; i++ {
		h.Publish(i)
	}
	for i := 0; i < n; i++ {
		if got := recvWithin(t, sub); got != i {
			t.Fatalf("event %d = %d", i, got)
		}
	}
	if p := sub.Pending(); p != 0 {
		t.Errorf("Pending() = %d, want 0", p)
	}
}

func TestHub_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub[int](1)
	slow := h.Subscribe()
	defer slow.Close()
	fast := h.Subscribe()
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on an unread subscriber")
	}
	for i := 0; i < 100; i++ {
		if got := recvWithin(t, fast); got != i {
			t.Fatalf("fast event %d = %d", i, got)
		}
	}
	if got := recvWithin(t, slow); got != 0 {
		t.Errorf("slow first event = %d", got)
	}
}

func TestHub_ConcurrentPublishers(t *testing.T) {
	h := NewHub[int](2)
	sub := h.Subscribe()
	defer sub.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				h.Publish(i)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		recvWithin(t, sub)
	}
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	h := NewHub[int](1)
	sub := h.Subscribe()
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	sub.Close()
	sub.Close()
	if h.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", h.Len())
	}
	h.Publish(1)
	select {
	case _, ok := <-sub.C():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}
}
