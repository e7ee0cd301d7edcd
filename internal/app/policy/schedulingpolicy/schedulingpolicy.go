// Package schedulingpolicy decides who may act on availability slots,
// appointments and notifications.
//
// Authorization rules:
//   - Admins (profile role or admin claim) may act on everything except
//     other users' notifications
//   - Mentors manage only their own slots
//   - Only emprendedores request appointments, and only for themselves
//   - Either party of an appointment may view it and change its status
//   - Notifications are visible to their recipient only
package schedulingpolicy

import (
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
)

func isAdmin(u *auth.SessionUser) bool {
	return u != nil && u.HasRole(models.RoleAdmin)
}

// CanManageSlots reports whether u may add or remove slots of mentorID.
func CanManageSlots(u *auth.SessionUser, mentorID string) bool {
	if isAdmin(u) {
		return true
	}
	return u != nil && u.HasRole(models.RoleMentor) && u.ID == mentorID
}

// CanRequest reports whether u may request an appointment on behalf of
// emprendedorID.
func CanRequest(u *auth.SessionUser, emprendedorID string) bool {
	if isAdmin(u) {
		return true
	}
	return u != nil && u.HasRole(models.RoleEmprendedor) && u.ID == emprendedorID
}

// IsParty reports whether u is the mentor or the emprendedor of a.
func IsParty(u *auth.SessionUser, a models.Appointment) bool {
	return u != nil && (u.ID == a.MentorID || u.ID == a.EmprendedorID)
}

// CanViewAppointment reports whether u may read a.
func CanViewAppointment(u *auth.SessionUser, a models.Appointment) bool {
	return isAdmin(u) || IsParty(u, a)
}

// CanUpdateStatus reports whether u may change the status of a.
func CanUpdateStatus(u *auth.SessionUser, a models.Appointment) bool {
	return isAdmin(u) || IsParty(u, a)
}

// CanReadNotification reports whether u owns n.
func CanReadNotification(u *auth.SessionUser, n models.Notification) bool {
	return u != nil && n.UserID == u.ID
}

// ListRole returns the role used to scope u's appointment lists and feeds:
// blank for admins (everything), the profile role for mentors and
// emprendedores. ok is false for users without a scheduling role.
func ListRole(u *auth.SessionUser) (role string, ok bool) {
	switch {
	case u == nil:
		return "", false
	case isAdmin(u):
		return "", true
	case u.HasRole(models.RoleMentor):
		return models.RoleMentor, true
	case u.HasRole(models.RoleEmprendedor):
		return models.RoleEmprendedor, true
	default:
		return "", false
	}
}
