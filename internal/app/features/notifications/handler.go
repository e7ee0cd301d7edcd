// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/policy/schedulingpolicy"
	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/paging"
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

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// ServeList handles GET /notifications. The "limit" query parameter caps
// the number of rows; the unread count always covers every notification.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Scheduling.ListNotifications(ctx, u.ID, paging.ParseLimit(r))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	unread, err := h.Scheduling.UnreadCount(ctx, u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{Notifications: list, Unread: unread})
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id := chi.URLParam(r, "id")
	n, err := h.Scheduling.GetNotification(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, _ := auth.CurrentUser(r)
	if !schedulingpolicy.CanReadNotification(u, n) {
		respond.Message(w, http.StatusNotFound, scheduling.MsgNotificationNotFound)
		return
	}
	if err := h.Scheduling.MarkRead(ctx, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
