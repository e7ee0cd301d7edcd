package logout

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		// Only allow signed-in users to sign out.
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.HandleSignOut)
	})

	return r
}
