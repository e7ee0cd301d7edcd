// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
)

// Handler serves the resolved session for the current request.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// userInfo is the body of GET /auth/me.
type userInfo struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	UID             string `json:"uid,omitempty"`
	Email           string `json:"email,omitempty"`
	IsAdmin         bool   `json:"isAdmin,omitempty"`
	Role            string `json:"role,omitempty"`
	FullName        string `json:"fullName,omitempty"`
}

// ServeUserInfo returns the current session, augmented with the profile
// role and name by LoadSessionUser.
//
//	{ "isAuthenticated": true, "uid": "...", "email": "...", "isAdmin": false, "role": "mentor", "fullName": "..." }
//
// Anonymous callers get 200 and { "isAuthenticated": false }.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.JSON(w, http.StatusOK, userInfo{})
		return
	}
	respond.JSON(w, http.StatusOK, userInfo{
		IsAuthenticated: true,
		UID:             user.ID,
		Email:           user.Email,
		IsAdmin:         user.IsAdmin,
		Role:            user.Role,
		FullName:        user.Name,
	})
}
