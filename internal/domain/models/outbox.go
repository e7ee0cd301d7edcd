// internal/domain/models/outbox.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OutboxEntry parks a notification whose first write failed so the
// retry worker can deliver it later.
type OutboxEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Notification  Notification       `bson:"notification"`
	Attempts      int                `bson:"attempts"`
	LastError     string             `bson:"last_error,omitempty"`
	NextAttemptAt time.Time          `bson:"next_attempt_at"`
	Abandoned     bool               `bson:"abandoned"`
	CreatedAt     time.Time          `bson:"created_at"`
}
