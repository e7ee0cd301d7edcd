// Package scheduling implements mentor availability, the appointment
// workflow and the notification feed.
package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/backend"
	"github.com/dalemusser/mentorhub/internal/app/store/appointments"
	"github.com/dalemusser/mentorhub/internal/app/store/availability"
	"github.com/dalemusser/mentorhub/internal/app/store/notifications"
	"github.com/dalemusser/mentorhub/internal/app/store/outbox"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BookingPolicy controls whether a slot can back more than one appointment.
type BookingPolicy string

const (
	// PolicyOpen inserts appointments without looking at the slot.
	PolicyOpen BookingPolicy = "open"
	// PolicyExclusive claims the slot and rejects a second booking.
	PolicyExclusive BookingPolicy = "exclusive"
)

// ParsePolicy maps a config value to a BookingPolicy.
func ParsePolicy(s string) (BookingPolicy, error) {
	switch BookingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyOpen:
		return PolicyOpen, nil
	case PolicyExclusive:
		return PolicyExclusive, nil
	default:
		return "", fmt.Errorf("unknown booking policy %q (want open or exclusive)", s)
	}
}

// NotificationWriter inserts notifications. Inserts must be idempotent on
// the notification id.
type NotificationWriter interface {
	Insert(ctx context.Context, n models.Notification) (models.Notification, error)
}

// Outbox parks notifications whose insert failed.
type Outbox interface {
	Enqueue(ctx context.Context, n models.Notification, cause error) error
}

// Deps are the collaborators of a Service. Writer defaults to
// Notifications when nil.
type Deps struct {
	Client        *mongo.Client
	Slots         *availability.Store
	Appointments  *appointments.Store
	Notifications *notifications.Store
	Writer        NotificationWriter
	Outbox        Outbox
	Audit         *auditlog.Logger
	Metrics       *metrics.Metrics
	Log           *zap.Logger

	Policy       BookingPolicy
	PollInterval time.Duration // polling cadence when change streams are unavailable
}

// Service is the scheduling service.
type Service struct {
	client  *mongo.Client
	slots   *availability.Store
	appts   *appointments.Store
	notes   *notifications.Store
	writer  NotificationWriter
	outbox  Outbox
	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
	policy  BookingPolicy
	poll    time.Duration
	now     func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	s := &Service{
		client:  d.Client,
		slots:   d.Slots,
		appts:   d.Appointments,
		notes:   d.Notifications,
		writer:  d.Writer,
		outbox:  d.Outbox,
		audit:   d.Audit,
		metrics: d.Metrics,
		log:     d.Log,
		policy:  d.Policy,
		poll:    d.PollInterval,
		now:     time.Now,
	}
	if s.writer == nil {
		s.writer = d.Notifications
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.policy == "" {
		s.policy = PolicyOpen
	}
	if s.poll <= 0 {
		s.poll = 2 * time.Second
	}
	return s
}

// FromBackend wires a Service to the shared document store.
func FromBackend(c *backend.Client, policy BookingPolicy, poll time.Duration, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Service {
	return New(Deps{
		Client:        c.MongoClient(),
		Slots:         availability.New(c.DB),
		Appointments:  appointments.New(c.DB),
		Notifications: notifications.New(c.DB),
		Outbox:        outbox.New(c.DB),
		Audit:         audit,
		Metrics:       m,
		Log:           log,
		Policy:        policy,
		PollInterval:  poll,
	})
}

// Policy returns the configured booking policy.
func (s *Service) Policy() BookingPolicy { return s.policy }

// SetClock replaces the time source used for notification timestamps.
func (s *Service) SetClock(now func() time.Time) { s.now = now }
