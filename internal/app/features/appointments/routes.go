// internal/app/features/appointments/routes.go
package appointments

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleRequest)
		pr.Get("/{id}", h.ServeAppointment)
		pr.Patch("/{id}/status", h.HandleStatus)
	})
	return r
}
