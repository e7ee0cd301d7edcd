// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
)

const (
	MsgNotFound         = "Recurso no encontrado."
	MsgMethodNotAllowed = "Método no permitido."
)

// Handler is the errors feature handler. It answers every fallback route
// with the same JSON error body the features use.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes with 404.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusNotFound, MsgNotFound)
}

// MethodNotAllowed answers a known route hit with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}

// Forbidden answers GET /forbidden.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusForbidden, auth.MsgForbidden)
}

// Unauthorized answers GET /unauthorized.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusUnauthorized, auth.MsgSignInRequired)
}

// Install registers the fallbacks on r.
func (h *Handler) Install(r chi.Router) {
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	r.Get("/forbidden", h.Forbidden)
	r.Get("/unauthorized", h.Unauthorized)
}
