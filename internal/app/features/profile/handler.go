// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accounts.Service
	Log      *zap.Logger
}

func NewHandler(acc *accounts.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: acc,
		Log:      logger,
	}
}

// ServeProfile handles GET /profiles/{uid}. The literal uid "me" resolves to
// the caller. A user without a stored profile gets the placeholder profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if uid == "me" {
		u, _ := auth.CurrentUser(r)
		uid = u.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Accounts.GetUserProfile(ctx, uid)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
