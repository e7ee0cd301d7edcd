// internal/app/features/availability/handler.go
package availability

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/policy/schedulingpolicy"
	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Scheduling *scheduling.Service
	Log        *zap.Logger
}

func NewHandler(svc *scheduling.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Scheduling: svc,
		Log:        logger,
	}
}

// slotForm stores values exactly as entered; only presence is checked.
type slotForm struct {
	Date  string `json:"date" validate:"required,max=32" label:"Fecha"`
	Start string `json:"start" validate:"required,max=16" label:"Hora de inicio"`
	End   string `json:"end" validate:"required,max=16" label:"Hora de fin"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// ServeList handles GET /mentors/{mentorID}/availability.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	slots, err := h.Scheduling.ListAvailability(ctx, chi.URLParam(r, "mentorID"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, slots)
}

// HandleAdd handles POST /mentors/{mentorID}/availability.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	mentorID := chi.URLParam(r, "mentorID")
	u, _ := auth.CurrentUser(r)
	if !schedulingpolicy.CanManageSlots(u, mentorID) {
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
		return
	}

	var in slotForm
	if err := formutil.Bind(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := h.Scheduling.AddSlot(ctx, mentorID, scheduling.SlotInput{Date: in.Date, Start: in.Start, End: in.End})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, createdResponse{ID: id})
}

// HandleRemove handles DELETE /mentors/{mentorID}/availability/{slotID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	mentorID := chi.URLParam(r, "mentorID")
	u, _ := auth.CurrentUser(r)
	if !schedulingpolicy.CanManageSlots(u, mentorID) {
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Scheduling.RemoveSlot(ctx, mentorID, chi.URLParam(r, "slotID")); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
