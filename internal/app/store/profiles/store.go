// internal/app/store/profiles/store.go
package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by Get when no profile exists.
var ErrNotFound = errors.New("profile not found")

// Data holds the role-conditional profile fields.
type Data struct {
	Program        string
	Experience     string
	Specialization string
	CurriculumURL  string
}

// Store manages user_profiles.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

// New creates a profile Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_profiles"), now: time.Now}
}

// EnsureIndexes creates the indexes used by the admin dashboard.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	return err
}

// Build assembles the profile document for role. Mentor-only fields are
// dropped for other roles; program is kept for mentors and emprendedores.
func Build(uid, fullName, role string, d Data, now time.Time) models.UserProfile {
	p := models.UserProfile{
		UID:       uid,
		FullName:  fullName,
		Role:      role,
		CreatedAt: now.UTC(),
	}
	switch role {
	case models.RoleEmprendedor:
		p.Program = d.Program
	case models.RoleMentor:
		p.Program = d.Program
		p.Experience = d.Experience
		p.Specialization = d.Specialization
		p.CurriculumURL = d.CurriculumURL
	}
	return p
}

// Create writes the profile for uid, replacing any existing one.
func (s *Store) Create(ctx context.Context, uid, fullName, role string, d Data) (models.UserProfile, error) {
	p := Build(uid, fullName, role, d, s.now())
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": uid}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

// Get returns the profile for uid or ErrNotFound.
func (s *Store) Get(ctx context.Context, uid string) (models.UserProfile, error) {
	var p models.UserProfile
	err := s.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	return p, err
}

// List returns profiles newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int64) ([]models.UserProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserProfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByRole returns the number of profiles per role.
func (s *Store) CountByRole(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Role] = r.Count
	}
	return out, nil
}
