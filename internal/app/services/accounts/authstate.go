package accounts

import (
	"context"
	"sync"

	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"go.uber.org/zap"
)

// EventKind discriminates auth-state events.
type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
)

// AuthEvent is one session transition. Session is nil for SIGNED_OUT.
type AuthEvent struct {
	Kind    EventKind `json:"event"`
	UID     string    `json:"uid"`
	Session *Session  `json:"session"`
}

// AuthSubscription delivers AuthEvents in the order the identity provider
// published them until Close is called.
type AuthSubscription struct {
	ch     chan AuthEvent
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// C returns the event channel. It is closed after Close.
func (a *AuthSubscription) C() <-chan AuthEvent { return a.ch }

// Close stops delivery and waits for the forwarding goroutine to exit.
func (a *AuthSubscription) Close() {
	a.once.Do(func() {
		a.cancel()
		<-a.done
	})
}

// OnAuthStateChange subscribes to every session transition. A SIGNED_IN
// event whose session cannot be augmented is still delivered with the uid
// and email only.
func (s *Service) OnAuthStateChange(ctx context.Context) *AuthSubscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := s.id.Subscribe()
	a := &AuthSubscription{
		ch:     make(chan AuthEvent, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(a.done)
		defer close(a.ch)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.C():
				if !ok {
					return
				}
				ev := s.toEvent(ctx, change)
				select {
				case a.ch <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return a
}

func (s *Service) toEvent(ctx context.Context, change identity.StateChange) AuthEvent {
	if change.Kind == identity.SignedOut {
		return AuthEvent{Kind: EventSignedOut, UID: change.UID}
	}
	ev := AuthEvent{Kind: EventSignedIn, UID: change.UID}
	tok, err := s.id.Refresh(ctx, change.IDToken)
	if err != nil {
		s.log.Warn("auth state augmentation failed", zap.String("uid", change.UID), zap.Error(err))
		ev.Session = &Session{UID: change.UID, Email: change.Email}
		return ev
	}
	ev.Session = s.augment(ctx, tok)
	return ev
}
