// internal/app/features/availability/routes.go
package availability

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves a mentor's slots when mounted at "/mentors".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/{mentorID}/availability", h.ServeList)
		pr.Post("/{mentorID}/availability", h.HandleAdd)
		pr.Delete("/{mentorID}/availability/{slotID}", h.HandleRemove)
	})
	return r
}
