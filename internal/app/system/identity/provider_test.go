package identity_test

import (
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testAPIKey = "test-api-key-0123456789"

func newProvider(t *testing.T) *identity.Provider {
	t.Helper()
	db := testutil.SetupTestDB(t)
	p, err := identity.New(db, identity.Config{
		APIKey:      testAPIKey,
		ProjectID:   "mentorhub-test",
		TokenSecret: []byte("test-token-secret-at-least-32-bytes!!"),
		TokenTTL:    time.Hour,
		BcryptCost:  bcrypt.MinCost,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("identity.New failed: %v", err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := p.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return p
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := identity.New(nil, identity.Config{TokenSecret: []byte("x")}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestCreateUser_ThenSignIn(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, tok, err := p.CreateUser(ctx, "Ana@Example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if len(u.UID) != 28 {
		t.Errorf("uid length = %d, want 28", len(u.UID))
	}
	if u.Email != "ana@example.com" {
		t.Errorf("email = %q, want normalized", u.Email)
	}
	if tok == "" {
		t.Error("expected a token from CreateUser")
	}

	u2, tok2, err := p.SignInWithPassword(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if u2.UID != u.UID {
		t.Errorf("uid = %q, want %q", u2.UID, u.UID)
	}

	vt, err := p.VerifyIDToken(ctx, tok2, true)
	if err != nil {
		t.Fatalf("VerifyIDToken failed: %v", err)
	}
	if vt.UID != u.UID || vt.Email != "ana@example.com" {
		t.Errorf("token subject = %+v", vt)
	}
}

func TestCreateUser_Errors(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := p.CreateUser(ctx, "dup@example.com", "secret1"); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"duplicate email", "DUP@example.com", "secret1", identity.CodeEmailAlreadyInUse},
		{"weak password", "new@example.com", "12345", identity.CodeWeakPassword},
		{"bad email", "not-an-email", "secret1", identity.CodeInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.CreateUser(ctx, tt.email, tt.password)
			if got := identity.CodeOf(err); got != tt.code {
				t.Errorf("code = %q, want %q (err=%v)", got, tt.code, err)
			}
		})
	}
}

func TestSignIn_Errors(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := p.CreateUser(ctx, "user@example.com", "secret1"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, _, err := p.SignInWithPassword(ctx, "user@example.com", "wrong!"); identity.CodeOf(err) != identity.CodeWrongPassword {
		t.Errorf("wrong password code = %q", identity.CodeOf(err))
	}
	if _, _, err := p.SignInWithPassword(ctx, "nobody@example.com", "secret1"); identity.CodeOf(err) != identity.CodeUserNotFound {
		t.Errorf("unknown user code = %q", identity.CodeOf(err))
	}
}

func TestSignIn_MalformedAPIKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p, err := identity.New(db, identity.Config{
		APIKey:      "short",
		ProjectID:   "p",
		TokenSecret: []byte("secret"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("identity.New failed: %v", err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, _, err = p.SignInWithPassword(ctx, "user@example.com", "secret1")
	if identity.CodeOf(err) != identity.CodeInvalidAPIKey {
		t.Errorf("code = %q, want %q", identity.CodeOf(err), identity.CodeInvalidAPIKey)
	}
}

func TestSignOut_RevokesToken(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	p.SetClock(func() time.Time { return now })
	_, tok, err := p.CreateUser(ctx, "out@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	p.SetClock(func() time.Time { return now.Add(time.Second) })
	if err := p.SignOut(ctx, tok); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	_, err = p.VerifyIDToken(ctx, tok, true)
	if identity.CodeOf(err) != identity.CodeTokenRevoked {
		t.Errorf("code = %q, want %q", identity.CodeOf(err), identity.CodeTokenRevoked)
	}
	if _, err := p.VerifyIDToken(ctx, tok, false); err != nil {
		t.Errorf("signature-only verification should still pass: %v", err)
	}
}

func TestVerifyIDToken_Expired(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	p.SetClock(func() time.Time { return now })
	_, tok, err := p.CreateUser(ctx, "exp@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	p.SetClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = p.VerifyIDToken(ctx, tok, false)
	if identity.CodeOf(err) != identity.CodeTokenExpired {
		t.Errorf("code = %q, want %q", identity.CodeOf(err), identity.CodeTokenExpired)
	}
}

func TestRefresh_PicksUpNewClaims(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, tok, err := p.CreateUser(ctx, "boss@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := p.SetCustomUserClaims(ctx, u.UID, map[string]any{"admin": true}); err != nil {
		t.Fatalf("SetCustomUserClaims failed: %v", err)
	}

	stale, _ := p.VerifyIDToken(ctx, tok, false)
	if stale.IsAdmin() {
		t.Error("expected old token to predate the claim")
	}

	fresh, err := p.Refresh(ctx, tok)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !fresh.IsAdmin() {
		t.Error("expected refreshed token to carry admin claim")
	}
}

func TestEnsureUser_CreatesThenUpdates(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u1, created, err := p.EnsureUser(ctx, "admin@example.com", "Admin123!")
	if err != nil || !created {
		t.Fatalf("EnsureUser(new) = created %v, err %v", created, err)
	}
	u2, created, err := p.EnsureUser(ctx, "admin@example.com", "Other123!")
	if err != nil || created {
		t.Fatalf("EnsureUser(existing) = created %v, err %v", created, err)
	}
	if u1.UID != u2.UID {
		t.Errorf("uid changed: %q vs %q", u1.UID, u2.UID)
	}
	if _, _, err := p.SignInWithPassword(ctx, "admin@example.com", "Other123!"); err != nil {
		t.Errorf("expected new password to work: %v", err)
	}
}

func TestSubscribe_ReceivesTransitions(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub := p.Subscribe()
	defer sub.Close()

	if _, _, err := p.CreateUser(ctx, "events@example.com", "secret1"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	select {
	case ev := <-sub.C():
		t.Fatalf("CreateUser announced %s before setup finished", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}

	_, tok, err := p.SignInWithPassword(ctx, "events@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if err := p.SignOut(ctx, tok); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	first := <-sub.C()
	second := <-sub.C()
	if first.Kind != identity.SignedIn || second.Kind != identity.SignedOut {
		t.Errorf("events = %s, %s; want SIGNED_IN, SIGNED_OUT", first.Kind, second.Kind)
	}
}

func TestAnnounceSignIn(t *testing.T) {
	p := newProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sub := p.Subscribe()
	defer sub.Close()

	u, tok, err := p.CreateUser(ctx, "late@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	p.AnnounceSignIn(u, tok)

	select {
	case ev := <-sub.C():
		if ev.Kind != identity.SignedIn || ev.UID != u.UID || ev.IDToken != tok {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SIGNED_IN")
	}
}
