// internal/app/store/notifications/store.go
package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Store manages notifications.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a notifications Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications"), now: time.Now}
}

// Collection exposes the underlying collection for live queries.
func (s *Store) Collection() *mongo.Collection { return s.c }

// EnsureIndexes creates the per-user inbox index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Insert stores n. Callers may preassign n.ID; re-inserting an id that
// already exists succeeds without writing, so a retried delivery never
// duplicates a notification.
func (s *Store) Insert(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return n, nil
		}
		return models.Notification{}, err
	}
	return n, nil
}

// MarkRead sets read=true. Marking an already-read notification succeeds.
func (s *Store) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one notification.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Notification, error) {
	var n models.Notification
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return n, ErrNotFound
	}
	return n, err
}

// ListForUser returns the user's notifications, newest first.
// limit <= 0 means no limit.
func (s *Store) ListForUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	q := s.UserQuery(userID)
	opts := options.Find().SetSort(q.Sort)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, q.Filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserQuery is the live query behind ListForUser.
func (s *Store) UserQuery(userID string) live.Query {
	f := bson.M{"user_id": userID}
	return live.Query{
		Filter: f,
		Match:  f,
		Sort:   bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	}
}

// CountUnread returns the number of unread notifications for userID.
func (s *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}
