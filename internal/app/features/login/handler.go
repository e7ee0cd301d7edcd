// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/store/audit"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts   *accounts.Service
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

func NewHandler(
	acc *accounts.Service,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts:   acc,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Metrics:    m,
		Log:        logger,
	}
}

type signInForm struct {
	Email    string `json:"email" validate:"required" label:"Correo"`
	Password string `json:"password" validate:"required" label:"Contraseña"`
}

// signInResponse carries the token for clients that prefer the
// Authorization header over the session cookie.
type signInResponse struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/signin                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var in signInForm
	if err := formutil.Bind(r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, in.Email); !ok {
			h.Metrics.SignIn(metrics.OutcomeLimited)
			h.AuditLog.LoginFailed(r.Context(), r, audit.EventLoginFailedRateLimit, in.Email, reason)
			respond.Message(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, tok, err := h.Accounts.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		h.AuditLog.LoginFailed(r.Context(), r, failureEvent(err), in.Email, apperr.MessageOf(err, ""))
		respond.Error(w, r, h.Log, err)
		return
	}

	if err := h.SessionMgr.SetToken(w, r, tok); err != nil {
		respond.Error(w, r, h.Log, apperr.Session(respond.MsgInternal, err))
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	h.AuditLog.LoginSuccess(r.Context(), r, u.UID, u.Email)

	respond.JSON(w, http.StatusOK, signInResponse{UID: u.UID, Email: u.Email, IDToken: tok})
}

// failureEvent picks the audit event for a rejected sign-in.
func failureEvent(err error) string {
	switch identity.CodeOf(err) {
	case identity.CodeUserNotFound:
		return audit.EventLoginFailedUserNotFound
	case identity.CodeUserDisabled:
		return audit.EventLoginFailedUserDisabled
	case identity.CodeInvalidAPIKey:
		return audit.EventLoginFailedInvalidAPIKey
	default:
		return audit.EventLoginFailedWrongPassword
	}
}
