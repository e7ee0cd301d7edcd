// internal/app/features/live/handler.go
package live

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/dalemusser/mentorhub/internal/app/policy/schedulingpolicy"
	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	livestream "github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MsgFeedEnded is sent to the client before the socket is closed when the
// underlying subscription fails.
const MsgFeedEnded = "La suscripción se interrumpió."

const writeTimeout = 10 * time.Second

// Feed names, also used as the metrics label.
const (
	FeedAvailability  = "availability"
	FeedAppointments  = "appointments"
	FeedNotifications = "notifications"
	FeedAuth          = "auth"
)

// Message types.
const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeError    = "error"
)

type Handler struct {
	Scheduling *scheduling.Service
	Accounts   *accounts.Service
	Metrics    *metrics.Metrics
	Log        *zap.Logger

	// OriginPatterns lists extra hosts allowed to open cross-origin sockets.
	OriginPatterns []string
}

func NewHandler(svc *scheduling.Service, acc *accounts.Service, m *metrics.Metrics, origins []string, logger *zap.Logger) *Handler {
	return &Handler{
		Scheduling:     svc,
		Accounts:       acc,
		Metrics:        m,
		Log:            logger,
		OriginPatterns: origins,
	}
}

// Message is the envelope of every frame written to a client.
type Message struct {
	Type  string `json:"type"`
	Feed  string `json:"feed"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// ServeAvailability handles GET /live/availability/{mentorID}.
func (h *Handler) ServeAvailability(w http.ResponseWriter, r *http.Request) {
	mentorID := strings.TrimSpace(chi.URLParam(r, "mentorID"))
	h.serve(w, r, FeedAvailability, func(ctx context.Context, conn *websocket.Conn) error {
		return pump(ctx, conn, FeedAvailability, h.Scheduling.ListenAvailability(ctx, mentorID))
	})
}

// ServeAppointments handles GET /live/appointments.
func (h *Handler) ServeAppointments(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	role, ok := schedulingpolicy.ListRole(u)
	if !ok {
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
		return
	}
	h.serve(w, r, FeedAppointments, func(ctx context.Context, conn *websocket.Conn) error {
		return pump(ctx, conn, FeedAppointments, h.Scheduling.ListenAppointmentsForUser(ctx, u.ID, role))
	})
}

// ServeNotifications handles GET /live/notifications.
func (h *Handler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	h.serve(w, r, FeedNotifications, func(ctx context.Context, conn *websocket.Conn) error {
		return pump(ctx, conn, FeedNotifications, h.Scheduling.ListenNotifications(ctx, u.ID))
	})
}

// ServeAuth handles GET /live/auth. The first frame describes the caller's
// current session; later frames are the caller's sign-in and sign-out
// events. Admins receive every user's events.
func (h *Handler) ServeAuth(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	h.serve(w, r, FeedAuth, func(ctx context.Context, conn *websocket.Conn) error {
		sub := h.Accounts.OnAuthStateChange(ctx)
		defer sub.Close()

		initial := accounts.AuthEvent{
			Kind: accounts.EventSignedIn,
			UID:  u.ID,
			Session: &accounts.Session{
				UID:      u.ID,
				Email:    u.Email,
				IsAdmin:  u.IsAdmin,
				Role:     u.Role,
				FullName: u.Name,
			},
		}
		if err := write(ctx, conn, Message{Type: TypeEvent, Feed: FeedAuth, Data: initial}); err != nil {
			return err
		}

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-sub.C():
				if !ok {
					return ctx.Err()
				}
				if !u.IsAdmin && ev.UID != u.ID {
					continue
				}
				if err := write(ctx, conn, Message{Type: TypeEvent, Feed: FeedAuth, Data: ev}); err != nil {
					return err
				}
			}
		}
	})
}

// serve upgrades the request and runs feed until the client goes away or
// the feed fails.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, feed string, run func(ctx context.Context, conn *websocket.Conn) error) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.OriginPatterns})
	if err != nil {
		// Accept has already written the HTTP error.
		h.Log.Debug("live: upgrade failed", zap.String("feed", feed), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	h.Metrics.Subscribed(feed, 1)
	defer h.Metrics.Subscribed(feed, -1)

	// Clients never send; CloseRead handles their close frame.
	ctx := conn.CloseRead(r.Context())

	err = run(ctx, conn)
	switch {
	case err == nil:
		_ = conn.Close(websocket.StatusNormalClosure, "")
	case ctx.Err() != nil, websocket.CloseStatus(err) != -1:
		// Client went away.
	default:
		h.Log.Warn("live: feed ended", zap.String("feed", feed), zap.Error(err))
		_ = write(ctx, conn, Message{Type: TypeError, Feed: feed, Error: MsgFeedEnded})
		_ = conn.Close(websocket.StatusInternalError, "feed ended")
	}
}

// pump forwards every snapshot of s until ctx is done or s ends. It always
// closes s.
func pump[T any](ctx context.Context, conn *websocket.Conn, feed string, s *livestream.Stream[T]) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-s.C():
			if !ok {
				if err := s.Err(); err != nil {
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("live: stream closed")
			}
			if err := write(ctx, conn, Message{Type: TypeSnapshot, Feed: feed, Data: snap}); err != nil {
				return err
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, m Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, m)
}
