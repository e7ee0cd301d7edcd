package live

import "sync"

// Hub fans events out to subscribers in publish order. Publish never
// blocks: each subscriber owns an unbounded queue drained by its own
// goroutine, so a slow reader delays only itself and loses nothing.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	buffer int
}

// NewHub returns a Hub whose subscriber channels have capacity buffer.
func NewHub[T any](buffer int) *Hub[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{}), buffer: buffer}
}

// Subscription receives events until Close. Events still queued when
// Close is called are discarded.
type Subscription[T any] struct {
	ch   chan T
	hub  *Hub[T]
	once sync.Once

	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	done  chan struct{}
}

// C returns the event channel. It is closed after Close.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.done)
	})
}

func (s *Subscription[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves queued events onto ch one at a time.
func (s *Subscription[T]) pump() {
	defer close(s.ch)
	var zero T
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		v := s.queue[0]
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.ch <- v:
		case <-s.done:
			return
		}
	}
}

// Pending returns how many events are queued but not yet on the channel.
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Subscribe registers a new subscriber.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		ch:   make(chan T, h.buffer),
		hub:  h,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	go s.pump()
	return s
}

// Publish queues v for every subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.push(v)
	}
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
