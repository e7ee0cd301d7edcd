// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/paging"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// MsgUsersLoadFailed is returned when the profile list cannot be read.
const MsgUsersLoadFailed = "No se pudieron cargar los usuarios."

type adminData struct {
	Role         string               `json:"role"`
	UsersByRole  map[string]int64     `json:"users_by_role"`
	TotalUsers   int64                `json:"total_users"`
	Appointments scheduling.Summary   `json:"appointments"`
	Users        []models.UserProfile `json:"users"`
}

// ServeAdmin returns platform-wide counters and the most recent profiles.
// The "limit" query parameter caps the user list.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	byRole, err := h.Profiles.CountByRole(ctx)
	if err != nil {
		h.Log.Error("dashboard: count profiles failed", zap.Error(err))
		respond.Error(w, r, h.Log, apperr.Store(MsgUsersLoadFailed, err))
		return
	}
	users, err := h.Profiles.List(ctx, paging.ParseLimit(r))
	if err != nil {
		h.Log.Error("dashboard: list profiles failed", zap.Error(err))
		respond.Error(w, r, h.Log, apperr.Store(MsgUsersLoadFailed, err))
		return
	}
	if users == nil {
		users = []models.UserProfile{}
	}
	sum, err := h.Scheduling.Summary(ctx, u.ID, "")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	data := adminData{
		Role:         models.RoleAdmin,
		UsersByRole:  byRole,
		Appointments: sum,
		Users:        users,
	}
	for _, n := range byRole {
		data.TotalUsers += n
	}

	h.Log.Debug("admin dashboard served", zap.String("user", u.ID))
	respond.JSON(w, http.StatusOK, data)
}
