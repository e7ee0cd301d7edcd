// internal/domain/models/profile.go
package models

import "time"

// Roles a profile may carry. Admin is only ever granted out of band
// (see cmd/createadmin); self sign-up accepts mentor and emprendedor.
const (
	RoleAdmin       = "admin"
	RoleMentor      = "mentor"
	RoleEmprendedor = "emprendedor"
)

// UnknownUserName is the display name used when no profile exists.
const UnknownUserName = "Usuario Desconocido"

// UserProfile is the per-user document keyed by the identity uid.
//
// NOTE:
//   - Program is shared by both roles; the mentor-only fields stay empty
//     for emprendedores.
//   - Profiles are written once at sign-up and never deleted.
type UserProfile struct {
	UID            string    `bson:"_id" json:"uid"`
	FullName       string    `bson:"full_name" json:"full_name"`
	Role           string    `bson:"role" json:"role"` // admin | mentor | emprendedor
	Program        string    `bson:"program,omitempty" json:"program,omitempty"`
	Experience     string    `bson:"experience,omitempty" json:"experience,omitempty"`
	Specialization string    `bson:"specialization,omitempty" json:"specialization,omitempty"`
	CurriculumURL  string    `bson:"curriculum_url,omitempty" json:"curriculum_url,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// PlaceholderProfile is returned for users without a stored profile.
func PlaceholderProfile(uid string) UserProfile {
	return UserProfile{UID: uid, Role: RoleEmprendedor, FullName: UnknownUserName}
}

// IsSelfServiceRole reports whether role can be chosen at sign-up.
func IsSelfServiceRole(role string) bool {
	return role == RoleMentor || role == RoleEmprendedor
}
