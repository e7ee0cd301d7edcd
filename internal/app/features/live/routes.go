// internal/app/features/live/routes.go
package live

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves the websocket feeds when mounted at "/live".
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/availability/{mentorID}", h.ServeAvailability)
		pr.Get("/appointments", h.ServeAppointments)
		pr.Get("/notifications", h.ServeNotifications)
		pr.Get("/auth", h.ServeAuth)
	})
	return r
}
