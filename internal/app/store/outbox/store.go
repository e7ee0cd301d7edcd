// internal/app/store/outbox/store.go
package outbox

import (
	"context"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages notification_outbox.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates an outbox Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notification_outbox"), now: time.Now}
}

// EnsureIndexes creates the due-entry index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "abandoned", Value: 1}, {Key: "next_attempt_at", Value: 1}},
	})
	return err
}

// Enqueue parks n for a later attempt. n.ID should already be set so the
// eventual insert is idempotent.
func (s *Store) Enqueue(ctx context.Context, n models.Notification, cause error) error {
	now := s.now().UTC()
	e := models.OutboxEntry{
		ID:            primitive.NewObjectID(),
		Notification:  n,
		Attempts:      1,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if cause != nil {
		e.LastError = cause.Error()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Due returns up to limit entries whose next attempt is at or before now.
func (s *Store) Due(ctx context.Context, now time.Time, limit int64) ([]models.OutboxEntry, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"abandoned": false, "next_attempt_at": bson.M{"$lte": now}},
		options.Find().SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.OutboxEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delivered removes an entry after a successful attempt.
func (s *Store) Delivered(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Failed records a failed attempt. When abandon is true the entry is kept
// for inspection but never retried again.
func (s *Store) Failed(ctx context.Context, id primitive.ObjectID, attempts int, cause error, next time.Time, abandon bool) error {
	set := bson.M{
		"attempts":        attempts,
		"next_attempt_at": next.UTC(),
		"abandoned":       abandon,
	}
	if cause != nil {
		set["last_error"] = cause.Error()
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// CountPending returns the number of entries still awaiting delivery.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"abandoned": false})
}
