// internal/app/store/availability/store.go
package availability

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

var (
	// ErrBadID is returned for a slot id that is not an ObjectID.
	ErrBadID = errors.New("invalid slot id")
	// ErrNotFound is returned when a slot does not exist for the mentor.
	ErrNotFound = errors.New("slot not found")
	// ErrOtherMentor is returned when the slot id belongs to another mentor.
	ErrOtherMentor = errors.New("slot belongs to another mentor")
	// ErrTaken is returned by Claim when the slot is already booked or removed.
	ErrTaken = errors.New("slot already booked")
)

// Store manages mentor_availability. Slots are addressed by
// (mentorID, slotID), mirroring mentors/{mentorId}/availability/{slotId}.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates an availability Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mentor_availability"), now: time.Now}
}

// Collection exposes the underlying collection for live queries.
func (s *Store) Collection() *mongo.Collection { return s.c }

// EnsureIndexes creates the per-mentor listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "mentor_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// Add appends a slot and returns it with its new id.
func (s *Store) Add(ctx context.Context, mentorID, date, start, end string) (models.AvailabilitySlot, error) {
	slot := models.AvailabilitySlot{
		ID:        primitive.NewObjectID(),
		MentorID:  mentorID,
		Date:      date,
		Start:     start,
		End:       end,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, slot); err != nil {
		return models.AvailabilitySlot{}, err
	}
	return slot, nil
}

// SoftDelete marks the slot deleted. A slot that does not exist yet is
// created already deleted, so removal is idempotent and never fails for
// unknown ids.
func (s *Store) SoftDelete(ctx context.Context, mentorID, slotID string) error {
	oid, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return ErrBadID
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": oid, "mentor_id": mentorID},
		bson.M{"$set": bson.M{"deleted": true}},
		options.Update().SetUpsert(true),
	)
	if wafflemongo.IsDup(err) {
		return ErrOtherMentor
	}
	return err
}

// Get returns one slot, deleted or not.
func (s *Store) Get(ctx context.Context, mentorID, slotID string) (models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	oid, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return slot, ErrBadID
	}
	err = s.c.FindOne(ctx, bson.M{"_id": oid, "mentor_id": mentorID}).Decode(&slot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return slot, ErrNotFound
	}
	return slot, err
}

// ListActive returns the mentor's non-deleted slots, oldest first.
func (s *Store) ListActive(ctx context.Context, mentorID string) ([]models.AvailabilitySlot, error) {
	q := s.ActiveQuery(mentorID)
	cur, err := s.c.Find(ctx, q.Filter, options.Find().SetSort(q.Sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AvailabilitySlot
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveQuery is the live query behind ListActive. Changes are matched on
// mentor_id alone so that a soft delete triggers a reload.
func (s *Store) ActiveQuery(mentorID string) live.Query {
	return live.Query{
		Filter: bson.M{"mentor_id": mentorID, "deleted": bson.M{"$ne": true}},
		Match:  bson.M{"mentor_id": mentorID},
		Sort:   bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	}
}

// Claim books the slot for appointmentID if it is live and unbooked.
// Claiming a slot already held by the same appointment succeeds.
func (s *Store) Claim(ctx context.Context, mentorID, slotID string, appointmentID primitive.ObjectID) error {
	oid, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return ErrBadID
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                   oid,
			"mentor_id":             mentorID,
			"deleted":               bson.M{"$ne": true},
			"booked_appointment_id": bson.M{"$in": bson.A{nil, appointmentID}},
		},
		bson.M{"$set": bson.M{"booked_appointment_id": appointmentID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTaken
	}
	return nil
}

// Release frees a slot held by appointmentID. Releasing a slot held by a
// different appointment is a no-op.
func (s *Store) Release(ctx context.Context, slotID string, appointmentID primitive.ObjectID) error {
	oid, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return ErrBadID
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": oid, "booked_appointment_id": appointmentID},
		bson.M{"$unset": bson.M{"booked_appointment_id": ""}},
	)
	return err
}
