package scheduling

import (
	"context"
	"errors"

	"github.com/dalemusser/mentorhub/internal/app/store/notifications"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// notify writes one notification. On failure the notification is parked
// in the outbox with its id already assigned so the retry cannot
// duplicate it. Parking runs on a context detached from the caller, since
// the insert often fails because the caller's context is already done.
func (s *Service) notify(ctx context.Context, userID, typ, appointmentID, message string) {
	n := models.Notification{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		Type:          typ,
		AppointmentID: appointmentID,
		Message:       message,
		Read:          false,
		CreatedAt:     s.now().UTC(),
	}
	_, err := s.writer.Insert(ctx, n)
	if err == nil {
		return
	}

	s.log.Error("notification write failed",
		zap.String("user_id", userID),
		zap.String("type", typ),
		zap.String("appointment_id", appointmentID),
		zap.Error(err))
	s.metrics.NotificationFailed(typ)

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	s.audit.NotificationDeferred(pctx, userID, appointmentID, typ, err)

	if s.outbox == nil {
		return
	}
	if oerr := s.outbox.Enqueue(pctx, n, err); oerr != nil {
		s.log.Error("notification lost: outbox enqueue failed",
			zap.String("notification_id", n.ID.Hex()),
			zap.String("user_id", userID),
			zap.Error(oerr))
	}
}

// ListenNotifications streams the user's notifications newest first. The
// caller must Close the stream.
func (s *Service) ListenNotifications(ctx context.Context, userID string) *live.Stream[models.Notification] {
	return live.Watch[models.Notification](ctx, s.notes.Collection(), s.notes.UserQuery(userID), s.poll, s.log)
}

// ListNotifications returns up to limit of the user's notifications,
// newest first. limit <= 0 returns all.
func (s *Service) ListNotifications(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	out, err := s.notes.ListForUser(ctx, userID, limit)
	if err != nil {
		s.log.Error("list notifications failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Store(MsgNotificationsFailed, err)
	}
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}

// GetNotification returns one notification.
func (s *Service) GetNotification(ctx context.Context, notificationID string) (models.Notification, error) {
	oid, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return models.Notification{}, apperr.NotFound(MsgNotificationNotFound)
	}
	n, err := s.notes.Get(ctx, oid)
	if errors.Is(err, notifications.ErrNotFound) {
		return models.Notification{}, apperr.NotFound(MsgNotificationNotFound)
	}
	if err != nil {
		return models.Notification{}, apperr.Store(MsgNotificationsFailed, err)
	}
	return n, nil
}

// MarkRead sets the notification's read flag. Marking twice succeeds.
func (s *Service) MarkRead(ctx context.Context, notificationID string) error {
	oid, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return apperr.NotFound(MsgNotificationNotFound)
	}
	err = s.notes.MarkRead(ctx, oid)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, notifications.ErrNotFound):
		return apperr.NotFound(MsgNotificationNotFound)
	default:
		s.log.Error("mark read failed", zap.String("notification_id", notificationID), zap.Error(err))
		return apperr.Store(MsgMarkReadFailed, err)
	}
}

// UnreadCount returns how many unread notifications the user has.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.notes.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Store(MsgNotificationsFailed, err)
	}
	return n, nil
}
