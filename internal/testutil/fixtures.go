package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/backend"
	"github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/blob"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TestAPIKey is a well-formed API key for identity providers built in tests.
const TestAPIKey = "test-api-key-0123456789abcdef"

// TestTokenSecret signs ID tokens in tests.
var TestTokenSecret = []byte("test-token-secret-must-be-long-enough")

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewIdentity builds an identity provider on db with a cheap bcrypt cost.
func NewIdentity(t *testing.T, db *mongo.Database) *identity.Provider {
	t.Helper()
	p, err := identity.New(db, identity.Config{
		APIKey:      TestAPIKey,
		ProjectID:   "mentorhub-test",
		TokenSecret: TestTokenSecret,
		BcryptCost:  bcrypt.MinCost,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("identity.New: %v", err)
	}
	return p
}

// NewBackend returns a backend client on db with an in-memory blob bucket
// served under /files.
func NewBackend(t *testing.T, db *mongo.Database) *backend.Client {
	t.Helper()
	return backend.New(NewIdentity(t, db), db, blob.Wrap(storage.NewMemory(storage.MemoryConfig{BaseURL: "/files"})))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	c *backend.Client
	t *testing.T
}

// NewFixtures creates a new Fixtures instance for the given backend.
func NewFixtures(t *testing.T, c *backend.Client) *Fixtures {
	t.Helper()
	return &Fixtures{c: c, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.c.DB
}

// CreateUser registers an identity and, unless role is empty, a profile.
// It returns the profile and a fresh ID token.
func (f *Fixtures) CreateUser(ctx context.Context, email, fullName, role string) (models.UserProfile, string) {
	f.t.Helper()

	u, tok, err := f.c.Auth.CreateUser(ctx, email, "secret123")
	if err != nil {
		f.t.Fatalf("CreateUser(%s): %v", email, err)
	}
	if role == "" {
		return models.UserProfile{UID: u.UID}, tok
	}

	var d profiles.Data
	if role == models.RoleEmprendedor || role == models.RoleMentor {
		d.Program = "Incubación"
	}
	p, err := profiles.New(f.c.DB).Create(ctx, u.UID, fullName, role, d)
	if err != nil {
		f.t.Fatalf("create profile for %s: %v", email, err)
	}
	return p, tok
}

// CreateAdmin registers an identity carrying the admin claim and returns
// its uid and a token minted after the claim was set.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) (string, string) {
	f.t.Helper()

	u, _, err := f.c.Auth.CreateUser(ctx, email, "secret123")
	if err != nil {
		f.t.Fatalf("CreateUser(%s): %v", email, err)
	}
	if err := f.c.Auth.SetCustomUserClaims(ctx, u.UID, map[string]any{"admin": true}); err != nil {
		f.t.Fatalf("SetCustomUserClaims: %v", err)
	}
	_, tok, err := f.c.Auth.SignInWithPassword(ctx, email, "secret123")
	if err != nil {
		f.t.Fatalf("SignInWithPassword(%s): %v", email, err)
	}
	return u.UID, tok
}
