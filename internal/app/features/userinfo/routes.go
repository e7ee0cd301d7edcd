// internal/app/features/userinfo/routes.go
package userinfo

import "github.com/go-chi/chi/v5"

// Routes serves GET / under the chosen mount point (e.g. "/auth/me").
// No auth-specific middleware is required because the handler itself
// checks the session via auth.CurrentUser.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeUserInfo)
	return r
}
