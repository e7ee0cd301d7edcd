// internal/domain/models/appointment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Appointment statuses.
const (
	StatusPending             = "pending"
	StatusConfirmed           = "confirmed"
	StatusCancelled           = "cancelled"
	StatusRescheduleRequested = "reschedule_requested"
	StatusCompleted           = "completed"
)

// AllStatuses lists every status an appointment may hold.
var AllStatuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusCancelled,
	StatusRescheduleRequested,
	StatusCompleted,
}

// IsValidStatus reports whether s is a known appointment status.
func IsValidStatus(s string) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// SlotRef is the denormalized copy of a slot stored on an appointment.
// Later edits to the source slot do not propagate.
type SlotRef struct {
	SlotID string `bson:"slot_id,omitempty" json:"slot_id,omitempty"`
	Date   string `bson:"date" json:"date"`
	Start  string `bson:"start" json:"start"`
	End    string `bson:"end" json:"end"`
}

// Appointment links a mentor and an emprendedor around one slot.
type Appointment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MentorID      string             `bson:"mentor_id" json:"mentor_id"`
	EmprendedorID string             `bson:"emprendedor_id" json:"emprendedor_id"`
	Slot          SlotRef            `bson:"slot" json:"slot"`
	Reason        *string            `bson:"reason" json:"reason"`
	Status        string             `bson:"status" json:"status"`
	Note          string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}
