// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyAppointmentRequest             = "appointment_request"
	NotifyAppointmentConfirmed           = "appointment_confirmed"
	NotifyAppointmentCancelled           = "appointment_cancelled"
	NotifyAppointmentRescheduleRequested = "appointment_reschedule_requested"
	NotifyAppointmentCompleted           = "appointment_completed"
	NotifyAppointmentUpdate              = "appointment_update"
)

// Notification is a per-user inbox entry. Only Read is ever mutated.
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Type          string             `bson:"type" json:"type"`
	AppointmentID string             `bson:"appointment_id" json:"appointment_id"`
	Message       string             `bson:"message,omitempty" json:"message,omitempty"`
	Read          bool               `bson:"read" json:"read"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
