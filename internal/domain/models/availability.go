// internal/domain/models/availability.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AvailabilitySlot is a bookable window published by a mentor.
// Date, Start and End are opaque strings as entered by the mentor.
type AvailabilitySlot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MentorID  string             `bson:"mentor_id" json:"mentor_id"`
	Date      string             `bson:"date,omitempty" json:"date"`
	Start     string             `bson:"start,omitempty" json:"start"`
	End       string             `bson:"end,omitempty" json:"end"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"created_at"`
	Deleted   bool               `bson:"deleted,omitempty" json:"deleted,omitempty"`

	// BookedAppointmentID is only written under the exclusive booking policy.
	BookedAppointmentID *primitive.ObjectID `bson:"booked_appointment_id,omitempty" json:"booked_appointment_id,omitempty"`
}
