package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/store/appointments"
	"github.com/dalemusser/mentorhub/internal/app/store/availability"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/app/system/txn"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AppointmentRequest asks a mentor for one slot.
type AppointmentRequest struct {
	MentorID      string         `json:"mentor_id"`
	EmprendedorID string         `json:"emprendedor_id"`
	Slot          models.SlotRef `json:"slot"`
	Reason        string         `json:"reason"`
}

// StatusUpdate overwrites an appointment's status. ActorID is recorded in
// the audit log only.
type StatusUpdate struct {
	Status  string `json:"status"`
	Note    string `json:"note,omitempty"`
	ActorID string `json:"-"`
}

// transitions lists, for each status, the statuses it may move to. Every
// known status may follow every other; unknown statuses are rejected.
var transitions = func() map[string]map[string]bool {
	t := make(map[string]map[string]bool, len(models.AllStatuses))
	for _, from := range models.AllStatuses {
		t[from] = make(map[string]bool, len(models.AllStatuses))
		for _, to := range models.AllStatuses {
			t[from][to] = true
		}
	}
	return t
}()

// CanTransition reports whether an appointment in status from may be set
// to status to.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// notificationFor maps a status to its notification type and message.
func notificationFor(status string) (string, string) {
	switch status {
	case models.StatusConfirmed:
		return models.NotifyAppointmentConfirmed, NoteConfirmed
	case models.StatusCancelled:
		return models.NotifyAppointmentCancelled, NoteCancelled
	case models.StatusRescheduleRequested:
		return models.NotifyAppointmentRescheduleRequested, NoteRescheduleRequested
	case models.StatusCompleted:
		return models.NotifyAppointmentCompleted, NoteCompleted
	default:
		return models.NotifyAppointmentUpdate, NoteUpdated
	}
}

// RequestAppointment creates a pending appointment and notifies the mentor.
// When a slot id is given the slot's stored date and times are copied onto
// the appointment; an unknown or removed slot is a Validation error. Under
// the exclusive policy the slot is claimed in the same transaction
// and a slot that is already taken yields a Conflict error.
func (s *Service) RequestAppointment(ctx context.Context, req AppointmentRequest) (string, error) {
	req.MentorID = strings.TrimSpace(req.MentorID)
	req.EmprendedorID = strings.TrimSpace(req.EmprendedorID)
	if req.MentorID == "" || req.EmprendedorID == "" {
		return "", apperr.Validation(MsgMissingParties)
	}
	if s.policy == PolicyExclusive && req.Slot.SlotID == "" {
		return "", apperr.Validation(MsgMissingSlot)
	}

	if req.Slot.SlotID != "" {
		slot, err := s.resolveSlot(ctx, req.MentorID, req.Slot.SlotID)
		if err != nil {
			return "", err
		}
		req.Slot = slot
	}

	appt := models.Appointment{
		ID:            primitive.NewObjectID(),
		MentorID:      req.MentorID,
		EmprendedorID: req.EmprendedorID,
		Slot:          req.Slot,
		Reason:        htmlsanitize.PlainTextPtr(&req.Reason),
		Status:        models.StatusPending,
	}

	var err error
	if s.policy == PolicyExclusive {
		err = s.bookExclusive(ctx, &appt)
	} else {
		appt, err = s.appts.Insert(ctx, appt)
	}
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return "", err
		}
		s.log.Error("appointment insert failed", zap.String("mentor_id", req.MentorID), zap.Error(err))
		return "", apperr.Store(MsgAppointmentSaveFailed, err)
	}

	id := appt.ID.Hex()
	s.audit.AppointmentRequested(ctx, id, appt.MentorID, appt.EmprendedorID)
	s.notify(ctx, appt.MentorID, models.NotifyAppointmentRequest, id, NoteRequest)
	return id, nil
}

// resolveSlot loads the mentor's live slot and returns a reference built
// from the stored date and times. Client-supplied times are never trusted
// when a slot id is given.
func (s *Service) resolveSlot(ctx context.Context, mentorID, slotID string) (models.SlotRef, error) {
	slot, err := s.slots.Get(ctx, mentorID, slotID)
	switch {
	case errors.Is(err, availability.ErrBadID), errors.Is(err, availability.ErrNotFound):
		return models.SlotRef{}, apperr.Validation(MsgSlotNotFound)
	case err != nil:
		s.log.Error("slot read failed", zap.String("slot_id", slotID), zap.Error(err))
		return models.SlotRef{}, apperr.Store(MsgAppointmentSaveFailed, err)
	case slot.Deleted:
		return models.SlotRef{}, apperr.Validation(MsgSlotNotFound)
	}
	return models.SlotRef{SlotID: slotID, Date: slot.Date, Start: slot.Start, End: slot.End}, nil
}

func (s *Service) bookExclusive(ctx context.Context, appt *models.Appointment) error {
	return txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		err := s.slots.Claim(ctx, appt.MentorID, appt.Slot.SlotID, appt.ID)
		switch {
		case errors.Is(err, availability.ErrTaken), errors.Is(err, availability.ErrBadID):
			return apperr.Conflict(MsgSlotTaken)
		case err != nil:
			return err
		}
		inserted, err := s.appts.Insert(ctx, *appt)
		if err != nil {
			// Without a transaction the claim has already been written.
			if rerr := s.slots.Release(ctx, appt.Slot.SlotID, appt.ID); rerr != nil {
				s.log.Warn("slot release after failed insert", zap.String("slot_id", appt.Slot.SlotID), zap.Error(rerr))
			}
			return err
		}
		*appt = inserted
		return nil
	})
}

// UpdateStatus overwrites the appointment's status, then notifies the
// emprendedor and the mentor. Notification failures never fail the call.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID string, upd StatusUpdate) (models.Appointment, error) {
	if !models.IsValidStatus(upd.Status) {
		return models.Appointment{}, apperr.Validation(MsgInvalidStatus)
	}
	oid, err := primitive.ObjectIDFromHex(appointmentID)
	if err != nil {
		return models.Appointment{}, apperr.NotFound(MsgAppointmentNotFound)
	}

	current, err := s.appts.Get(ctx, oid)
	if errors.Is(err, appointments.ErrNotFound) {
		return models.Appointment{}, apperr.NotFound(MsgAppointmentNotFound)
	}
	if err != nil {
		s.log.Error("appointment read failed", zap.String("appointment_id", appointmentID), zap.Error(err))
		return models.Appointment{}, apperr.Store(MsgStatusUpdateFailed, err)
	}
	if !CanTransition(current.Status, upd.Status) {
		return models.Appointment{}, apperr.Validation(MsgInvalidStatus)
	}

	note := htmlsanitize.PlainText(upd.Note)
	if err := s.appts.UpdateStatus(ctx, oid, upd.Status, note); err != nil {
		if errors.Is(err, appointments.ErrNotFound) {
			return models.Appointment{}, apperr.NotFound(MsgAppointmentNotFound)
		}
		s.log.Error("status update failed", zap.String("appointment_id", appointmentID), zap.Error(err))
		return models.Appointment{}, apperr.Store(MsgStatusUpdateFailed, err)
	}
	s.audit.AppointmentStatusChanged(ctx, appointmentID, upd.ActorID, upd.Status)

	appt, err := s.appts.Get(ctx, oid)
	if err != nil {
		// The write succeeded; report it with what we know.
		s.log.Warn("appointment re-read failed", zap.String("appointment_id", appointmentID), zap.Error(err))
		appt = current
		appt.Status = upd.Status
		if note != "" {
			appt.Note = note
		}
	}

	if upd.Status == models.StatusCancelled && appt.Slot.SlotID != "" {
		if err := s.slots.Release(ctx, appt.Slot.SlotID, appt.ID); err != nil && !errors.Is(err, availability.ErrBadID) {
			s.log.Warn("slot release failed", zap.String("slot_id", appt.Slot.SlotID), zap.Error(err))
		}
	}

	typ, msg := notificationFor(upd.Status)
	if appt.EmprendedorID != "" {
		s.notify(ctx, appt.EmprendedorID, typ, appointmentID, msg)
	}
	if appt.MentorID != "" {
		s.notify(ctx, appt.MentorID, typ, appointmentID, msg)
	}
	return appt, nil
}

// GetAppointment returns one appointment.
func (s *Service) GetAppointment(ctx context.Context, appointmentID string) (models.Appointment, error) {
	oid, err := primitive.ObjectIDFromHex(appointmentID)
	if err != nil {
		return models.Appointment{}, apperr.NotFound(MsgAppointmentNotFound)
	}
	a, err := s.appts.Get(ctx, oid)
	if errors.Is(err, appointments.ErrNotFound) {
		return models.Appointment{}, apperr.NotFound(MsgAppointmentNotFound)
	}
	if err != nil {
		s.log.Error("appointment read failed", zap.String("appointment_id", appointmentID), zap.Error(err))
		return models.Appointment{}, apperr.Store(MsgAppointmentsLoadFailed, err)
	}
	return a, nil
}

// ListAppointmentsForUser returns the user's appointments newest first.
// A blank role lists every appointment.
func (s *Service) ListAppointmentsForUser(ctx context.Context, userID, role string) ([]models.Appointment, error) {
	out, err := s.appts.ListForUser(ctx, userID, role)
	if err != nil {
		s.log.Error("list appointments failed", zap.String("user_id", userID), zap.Error(err))
		return nil, apperr.Store(MsgAppointmentsLoadFailed, err)
	}
	if out == nil {
		out = []models.Appointment{}
	}
	return out, nil
}

// ListenAppointmentsForUser streams the user's appointments newest first.
// A blank role streams every appointment. The caller must Close the stream.
func (s *Service) ListenAppointmentsForUser(ctx context.Context, userID, role string) *live.Stream[models.Appointment] {
	return live.Watch[models.Appointment](ctx, s.appts.Collection(), s.appts.UserQuery(userID, role), s.poll, s.log)
}
