// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	profilestore "github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Scheduling *scheduling.Service
	Profiles   *profilestore.Store
	Log        *zap.Logger
}

func NewHandler(svc *scheduling.Service, profiles *profilestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Scheduling: svc,
		Profiles:   profiles,
		Log:        logger,
	}
}

// ServeDashboard dispatches to the view for the caller's role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, auth.MsgSignInRequired)
		return
	}

	if u.IsAdmin {
		h.ServeAdmin(w, r)
		return
	}
	switch strings.ToLower(strings.TrimSpace(u.Role)) {
	case models.RoleAdmin:
		h.ServeAdmin(w, r)
	case models.RoleMentor, models.RoleEmprendedor:
		h.ServeSummary(w, r)
	default:
		respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
	}
}
