// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-up, sign-in and sign-out events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Scheduling controls logging for availability and appointment events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Scheduling string
}

// ValidMode reports whether s is one of "all", "db", "log" or "off".
func ValidMode(s string) bool {
	switch s {
	case "all", "db", "log", "off":
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryScheduling:
		setting = l.config.Scheduling
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestContext(r *http.Request) (ip, ua string) {
	if r == nil {
		return "", ""
	}
	return ratelimit.ClientIP(r), r.UserAgent()
}

// --- Authentication Events ---

// SignUp logs a registration attempt.
func (l *Logger) SignUp(ctx context.Context, r *http.Request, uid, email, role string, success bool, reason string) {
	ip, ua := requestContext(r)
	eventType := audit.EventSignUp
	if !success {
		eventType = audit.EventSignUpFailed
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        uid,
		IP:            ip,
		UserAgent:     ua,
		Success:       success,
		FailureReason: reason,
		Details:       map[string]string{"email": email, "role": role},
	})
}

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, uid, email string) {
	ip, ua := requestContext(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    uid,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a rejected sign-in. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType, attemptedEmail, reason string) {
	ip, ua := requestContext(r)
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		IP:            ip,
		UserAgent:     ua,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, uid string) {
	ip, ua := requestContext(r)
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    uid,
		IP:        ip,
		UserAgent: ua,
		Success:   true,
	})
}

// AdminGranted logs the admin claim being attached to a user.
func (l *Logger) AdminGranted(ctx context.Context, uid, email string, created bool) {
	c := "false"
	if created {
		c = "true"
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAdminGranted,
		UserID:    uid,
		Success:   true,
		Details:   map[string]string{"email": email, "created": c},
	})
}

// --- Scheduling Events ---

// SlotAdded logs a new availability slot.
func (l *Logger) SlotAdded(ctx context.Context, mentorID, slotID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryScheduling,
		EventType: audit.EventSlotAdded,
		UserID:    mentorID,
		Success:   true,
		Details:   map[string]string{"slot_id": slotID},
	})
}

// SlotRemoved logs a soft-deleted availability slot.
func (l *Logger) SlotRemoved(ctx context.Context, mentorID, slotID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryScheduling,
		EventType: audit.EventSlotRemoved,
		UserID:    mentorID,
		Success:   true,
		Details:   map[string]string{"slot_id": slotID},
	})
}

// AppointmentRequested logs a new appointment request.
func (l *Logger) AppointmentRequested(ctx context.Context, appointmentID, mentorID, emprendedorID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryScheduling,
		EventType: audit.EventAppointmentRequested,
		UserID:    mentorID,
		ActorID:   emprendedorID,
		Success:   true,
		Details:   map[string]string{"appointment_id": appointmentID},
	})
}

// AppointmentStatusChanged logs a status overwrite.
func (l *Logger) AppointmentStatusChanged(ctx context.Context, appointmentID, actorID, status string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryScheduling,
		EventType: audit.EventAppointmentStatus,
		ActorID:   actorID,
		Success:   true,
		Details:   map[string]string{"appointment_id": appointmentID, "status": status},
	})
}

// NotificationDeferred logs a notification that was parked in the outbox.
func (l *Logger) NotificationDeferred(ctx context.Context, userID, appointmentID, notifType string, cause error) {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryScheduling,
		EventType:     audit.EventNotificationDeferred,
		UserID:        userID,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"appointment_id": appointmentID, "type": notifType},
	})
}
