// internal/app/features/appointments/handler.go
package appointments

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/policy/schedulingpolicy"
	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
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

// requestForm is flat so it binds from JSON and from plain forms alike.
// EmprendedorID defaults to the caller.
type requestForm struct {
	MentorID      string `json:"mentor_id" validate:"required" label:"Mentor"`
	EmprendedorID string `json:"emprendedor_id"`
	SlotID        string `json:"slot_id"`
	Date          string `json:"date" validate:"max=32" label:"Fecha"`
	Start         string `json:"start" validate:"max=16" label:"Hora de inicio"`
	End           string `json:"end" validate:"max=16" label:"Hora de fin"`
	Reason        string `json:"reason" validate:"max=2000" label:"Motivo"`
}

type statusForm struct {
	Status string `json:"status" validate:"required,apptstatus" label:"Estado"`
	Note   string `json:"note" validate:"max=2000" label:"Nota"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// ServeList handles GET /appointments: the caller's appointments, or every
// appointment for admins.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	role, ok := schedulingpolicy.ListRole(u)
	if !ok {
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Scheduling.ListAppointmentsForUser(ctx, u.ID, role)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleRequest handles POST /appointments.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var in requestForm
	if err := formutil.Bind(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, _ := auth.CurrentUser(r)
	if strings.TrimSpace(in.EmprendedorID) == "" {
		in.EmprendedorID = u.ID
	}
	if !schedulingpolicy.CanRequest(u, in.EmprendedorID) {
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.Scheduling.RequestAppointment(ctx, scheduling.AppointmentRequest{
		MentorID:      in.MentorID,
		EmprendedorID: in.EmprendedorID,
		Slot:          models.SlotRef{SlotID: in.SlotID, Date: in.Date, Start: in.Start, End: in.End},
		Reason:        in.Reason,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, createdResponse{ID: id})
}

// ServeAppointment handles GET /appointments/{id}.
func (h *Handler) ServeAppointment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	u, _ := auth.CurrentUser(r)
	if !schedulingpolicy.CanViewAppointment(u, a) {
		// Outsiders cannot tell a foreign appointment from a missing one.
		respond.Message(w, http.StatusNotFound, scheduling.MsgAppointmentNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

// HandleStatus handles PATCH /appointments/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var in statusForm
	if err := formutil.Bind(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	u, _ := auth.CurrentUser(r)
	if !schedulingpolicy.CanViewAppointment(u, a) {
		respond.Message(w, http.StatusNotFound, scheduling.MsgAppointmentNotFound)
		return
	}
	if !schedulingpolicy.CanUpdateStatus(u, a) {
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
		return
	}

	updated, err := h.Scheduling.UpdateStatus(ctx, a.ID.Hex(), scheduling.StatusUpdate{
		Status:  in.Status,
		Note:    in.Note,
		ActorID: u.ID,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Appointment, bool) {
	a, err := h.Scheduling.GetAppointment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return models.Appointment{}, false
	}
	return a, true
}
