// internal/app/store/appointments/store.go
package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when an appointment does not exist.
var ErrNotFound = errors.New("appointment not found")

// Store manages appointments.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates an appointments Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("appointments"), now: time.Now}
}

// Collection exposes the underlying collection for live queries.
func (s *Store) Collection() *mongo.Collection { return s.c }

// EnsureIndexes creates the per-party listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "mentor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "emprendedor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

// Insert stores a. A zero ID or CreatedAt is filled in.
func (s *Store) Insert(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Appointment{}, err
	}
	return a, nil
}

// UpdateStatus overwrites status and updated_at. A non-empty note is
// stored alongside; an empty note leaves any previous note in place.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, note string) error {
	set := bson.M{"status": status, "updated_at": s.now().UTC()}
	if note != "" {
		set["note"] = note
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns one appointment.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Appointment, error) {
	var a models.Appointment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return a, ErrNotFound
	}
	return a, err
}

// PartyFilter selects appointments where userID plays role. A blank role
// (or admin) selects every appointment.
func PartyFilter(userID, role string) bson.M {
	switch role {
	case models.RoleMentor:
		return bson.M{"mentor_id": userID}
	case models.RoleEmprendedor:
		return bson.M{"emprendedor_id": userID}
	default:
		return bson.M{}
	}
}

// ListForUser returns the user's appointments, newest first.
func (s *Store) ListForUser(ctx context.Context, userID, role string) ([]models.Appointment, error) {
	q := s.UserQuery(userID, role)
	cur, err := s.c.Find(ctx, q.Filter, options.Find().SetSort(q.Sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserQuery is the live query behind ListForUser.
func (s *Store) UserQuery(userID, role string) live.Query {
	f := PartyFilter(userID, role)
	var match bson.M
	if len(f) > 0 {
		match = f
	}
	return live.Query{
		Filter: f,
		Match:  match,
		Sort:   bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	}
}

// CountByStatus returns per-status counts for the user's appointments.
func (s *Store) CountByStatus(ctx context.Context, userID, role string) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: PartyFilter(userID, role)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// CountCounterparts returns how many distinct other parties the user has
// appointments with, ignoring cancelled ones.
func (s *Store) CountCounterparts(ctx context.Context, userID, role string) (int64, error) {
	field := "emprendedor_id"
	if role == models.RoleEmprendedor {
		field = "mentor_id"
	}
	filter := PartyFilter(userID, role)
	filter["status"] = bson.M{"$ne": models.StatusCancelled}

	ids, err := s.c.Distinct(ctx, field, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}
