package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// manualSource is a Loader/Waiter pair driven by the test.
type manualSource struct {
	mu    sync.Mutex
	items []int
	tick  chan struct{}
	err   error
}

func newManualSource() *manualSource {
	return &manualSource{tick: make(chan struct{}, 16)}
}

func (m *manualSource) set(items ...int) {
	m.mu.Lock()
	m.items = append([]int(nil), items...)
	m.mu.Unlock()
	m.tick <- struct{}{}
}

func (m *manualSource) load(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]int(nil), m.items...), nil
}

func (m *manualSource) open(ctx context.Context) (Waiter, func(), error) {
	return func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.tick:
			return nil
		}
	}, nil, nil
}

func recv(t *testing.T, s *Stream[int]) []int {
	t.Helper()
	select {
	case snap, ok := <-s.C():
		if !ok {
			t.Fatal("stream closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestStart_PublishesInitialSnapshot(t *testing.T) {
	src := newManualSource()
	src.items = []int{1, 2}

	s := Start(context.Background(), src.open, src.load, Options{}, nil)
	defer s.Close()

	got := recv(t, s)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("initial snapshot = %v, want [1 2]", got)
	}
}

func TestStart_EmptyResultIsNonNil(t *testing.T) {
	src := newManualSource()
	s := Start(context.Background(), src.open, src.load, Options{}, nil)
	defer s.Close()

	got := recv(t, s)
	if got == nil {
		t.Error("expected empty, non-nil snapshot")
	}
}

func TestStart_LatestSnapshotWins(t *testing.T) {
	src := newManualSource()
	s := Start(context.Background(), src.open, src.load, Options{}, nil)
	defer s.Close()

	_ = recv(t, s)
	src.set(1)
	src.set(1, 2)
	src.set(1, 2, 3)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-s.C():
			if len(snap) == 3 {
				return
			}
		case <-deadline:
			t.Fatal("never observed the latest snapshot")
		}
	}
}

func TestStart_SkipUnchanged(t *testing.T) {
	src := newManualSource()
	src.items = []int{7}
	s := Start(context.Background(), src.open, src.load, Options{SkipUnchanged: true}, nil)
	defer s.Close()

	_ = recv(t, s)
	src.set(7)
	src.set(7, 8)

	got := recv(t, s)
	if len(got) != 2 {
		t.Errorf("expected the unchanged snapshot to be skipped, got %v", got)
	}
}

func TestClose_StopsDeliveryAndClosesChannel(t *testing.T) {
	src := newManualSource()
	s := Start(context.Background(), src.open, src.load, Options{}, nil)
	_ = recv(t, s)

	s.Close()
	s.Close()

	if _, ok := <-s.C(); ok {
		t.Error("expected channel to be closed after Close")
	}
	if s.Err() != nil {
		t.Errorf("Err() after Close = %v, want nil", s.Err())
	}
}

func TestStart_LoadErrorEndsStream(t *testing.T) {
	src := newManualSource()
	src.err = errors.New("boom")
	s := Start(context.Background(), src.open, src.load, Options{}, nil)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end on load error")
	}
	if s.Err() == nil {
		t.Error("expected Err() to report the load failure")
	}
}

func TestStart_OpenErrorEndsStream(t *testing.T) {
	open := func(ctx context.Context) (Waiter, func(), error) {
		return nil, nil, errors.New("no change stream")
	}
	load := func(ctx context.Context) ([]int, error) { return nil, nil }
	s := Start(context.Background(), open, load, Options{}, nil)
	<-s.Done()
	if s.Err() == nil {
		t.Error("expected Err() to report the open failure")
	}
}

func TestStart_CleanupRunsOnClose(t *testing.T) {
	cleaned := make(chan struct{})
	src := newManualSource()
	open := func(ctx context.Context) (Waiter, func(), error) {
		w, _, _ := src.open(ctx)
		return w, func() { close(cleaned) }, nil
	}
	s := Start(context.Background(), open, src.load, Options{}, nil)
	_ = recv(t, s)
	s.Close()

	select {
	case <-cleaned:
	case <-time.After(time.Second):
		t.Fatal("cleanup was not called")
	}
}

func TestPollWaiter_RespectsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := PollWaiter(time.Hour)(ctx); err == nil {
		t.Error("expected cancelled context error")
	}
}
