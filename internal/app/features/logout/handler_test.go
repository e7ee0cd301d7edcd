package logout_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/features/logout"
	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleSignOut_RevokesToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := testutil.NewBackend(t, db)
	fixtures := testutil.NewFixtures(t, c)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	acc := accounts.FromBackend(c, nil, nil, zap.NewNop())
	h := logout.NewHandler(acc, sm, nil, zap.NewNop())

	p, tok := fixtures.CreateUser(ctx, "ana@example.com", "Ana", models.RoleMentor)

	req := testutil.NewRequest("POST", "/auth/signout")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: p.UID, Role: p.Role, IDToken: tok})
	rec := testutil.NewRecorder()
	h.HandleSignOut(rec, req)

	rec.AssertStatus(t, http.StatusNoContent)

	sess, err := acc.GetCurrentUser(ctx, tok)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if sess != nil {
		t.Errorf("expected the token to be revoked, got session %+v", sess)
	}

	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "test-session" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be cleared")
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	router := logout.Routes(logout.NewHandler(nil, sm, nil, zap.NewNop()), sm)

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("POST", "/"))

	rec.AssertStatus(t, http.StatusUnauthorized)
}
