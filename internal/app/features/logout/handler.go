package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accounts.Service
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(acc *accounts.Service, sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   acc,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Log:        logger,
	}
}

// HandleSignOut handles POST /auth/signout. The token is revoked first; the
// cookie is only cleared once the backend has accepted the sign-out.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Accounts.SignOut(ctx, u.IDToken); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.SessionMgr.Clear(w, r)
	h.AuditLog.Logout(r.Context(), r, u.ID)
	w.WriteHeader(http.StatusNoContent)
}
