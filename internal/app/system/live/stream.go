// Package live delivers query snapshots and in-process events to
// subscribers until they close their handle.
//
// A Stream carries full snapshots of a query result. Delivery is
// latest-wins: a slow reader skips intermediate snapshots but always
// receives the most recent one.
package live

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// ErrStreamEnded is reported by Err when the change source ends without an
// error of its own.
var ErrStreamEnded = errors.New("live: change source ended")

// Loader reads the current snapshot.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Waiter blocks until the next change is observed.
type Waiter func(ctx context.Context) error

// Stream is a cancellable subscription to query snapshots.
type Stream[T any] struct {
	ch     chan []T
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// C returns the snapshot channel. It is closed when the stream ends.
func (s *Stream[T]) C() <-chan []T { return s.ch }

// Close stops the stream and waits for its goroutine to exit.
// It is safe to call more than once.
func (s *Stream[T]) Close() {
	s.cancel()
	<-s.done
}

// Err returns the error that ended the stream, or nil if it is still
// running or was closed by the caller.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the stream goroutine has exited.
func (s *Stream[T]) Done() <-chan struct{} { return s.done }

// Options tune a stream.
type Options struct {
	// SkipUnchanged drops snapshots equal to the previous one. Polling
	// sources set this so a quiet collection produces no traffic.
	SkipUnchanged bool
}

// Start runs load once, publishes the result, then republishes after every
// wait until ctx is cancelled, Close is called, or load/wait fails.
//
// open is called before the first load so that no change between the first
// read and the first wait is lost. It returns the Waiter and a cleanup func.
func Start[T any](parent context.Context, open func(ctx context.Context) (Waiter, func(), error), load Loader[T], opts Options, log *zap.Logger) *Stream[T] {
	ctx, cancel := context.WithCancel(parent)
	s := &Stream[T]{
		ch:     make(chan []T, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if log == nil {
		log = zap.NewNop()
	}

	go func() {
		defer close(s.done)
		defer close(s.ch)

		wait, cleanup, err := open(ctx)
		if err != nil {
			s.fail(ctx, err, log)
			return
		}
		if cleanup != nil {
			defer cleanup()
		}

		var last []T
		first := true
		for {
			snap, err := load(ctx)
			if err != nil {
				s.fail(ctx, err, log)
				return
			}
			if snap == nil {
				snap = []T{}
			}
			if first || !opts.SkipUnchanged || !reflect.DeepEqual(last, snap) {
				s.publish(snap)
				last = snap
				first = false
			}

			if err := wait(ctx); err != nil {
				s.fail(ctx, err, log)
				return
			}
		}
	}()

	return s
}

// publish replaces any undelivered snapshot with snap.
func (s *Stream[T]) publish(snap []T) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *Stream[T]) fail(ctx context.Context, err error, log *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	log.Warn("live stream ended", zap.Error(err))
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
