package scheduling

import (
	"context"
	"errors"

	"github.com/dalemusser/mentorhub/internal/app/store/availability"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// SlotInput is a mentor-declared window. Values are stored as given.
type SlotInput struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// AddSlot appends a slot for mentorID and returns its id. No ordering,
// overlap or future-date checks are made.
func (s *Service) AddSlot(ctx context.Context, mentorID string, in SlotInput) (string, error) {
	if mentorID == "" {
		return "", apperr.Validation(MsgMissingMentor)
	}
	slot, err := s.slots.Add(ctx, mentorID, in.Date, in.Start, in.End)
	if err != nil {
		s.log.Error("add slot failed", zap.String("mentor_id", mentorID), zap.Error(err))
		return "", apperr.Store(MsgSlotSaveFailed, err)
	}
	id := slot.ID.Hex()
	s.audit.SlotAdded(ctx, mentorID, id)
	return id, nil
}

// RemoveSlot soft-deletes a slot. Removing an unknown or already removed
// slot succeeds.
func (s *Service) RemoveSlot(ctx context.Context, mentorID, slotID string) error {
	err := s.slots.SoftDelete(ctx, mentorID, slotID)
	switch {
	case err == nil:
		s.audit.SlotRemoved(ctx, mentorID, slotID)
		return nil
	case errors.Is(err, availability.ErrBadID), errors.Is(err, availability.ErrOtherMentor):
		return apperr.NotFound(MsgSlotNotFound)
	default:
		s.log.Error("remove slot failed", zap.String("mentor_id", mentorID), zap.String("slot_id", slotID), zap.Error(err))
		return apperr.Store(MsgSlotRemoveFailed, err)
	}
}

// ListAvailability returns the mentor's live slots, oldest first.
func (s *Service) ListAvailability(ctx context.Context, mentorID string) ([]models.AvailabilitySlot, error) {
	out, err := s.slots.ListActive(ctx, mentorID)
	if err != nil {
		s.log.Error("list availability failed", zap.String("mentor_id", mentorID), zap.Error(err))
		return nil, apperr.Store(MsgAvailabilityLoadFailed, err)
	}
	if out == nil {
		out = []models.AvailabilitySlot{}
	}
	return out, nil
}

// ListenAvailability streams the mentor's live slots, oldest first, as a
// full snapshot after every change. The caller must Close the stream.
func (s *Service) ListenAvailability(ctx context.Context, mentorID string) *live.Stream[models.AvailabilitySlot] {
	return live.Watch[models.AvailabilitySlot](ctx, s.slots.Collection(), s.slots.ActiveQuery(mentorID), s.poll, s.log)
}
