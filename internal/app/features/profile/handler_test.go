package profile_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/mentorhub/internal/app/features/profile"
	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServeProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := testutil.NewBackend(t, db)
	fixtures := testutil.NewFixtures(t, c)
	h := profile.NewHandler(accounts.FromBackend(c, nil, nil, zap.NewNop()), zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mentor, _ := fixtures.CreateUser(ctx, "m@example.com", "Marta Mentora", models.RoleMentor)
	orphan, _ := fixtures.CreateUser(ctx, "o@example.com", "", "")

	tests := []struct {
		name     string
		param    string
		user     testutil.TestUser
		wantName string
		wantRole string
	}{
		{"stored profile", mentor.UID, testutil.EmprendedorUser(), "Marta Mentora", models.RoleMentor},
		{"me alias", "me", testutil.TestUser{ID: mentor.UID, Role: models.RoleMentor}, "Marta Mentora", models.RoleMentor},
		{"missing profile gets placeholder", orphan.UID, testutil.AdminUser(), models.UnknownUserName, models.RoleEmprendedor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedRequest("GET", "/profiles/"+tt.param, tt.user)
			req = testutil.WithChiURLParam(req, "uid", tt.param)
			rec := testutil.NewRecorder()
			h.ServeProfile(rec, req)

			rec.AssertStatus(t, http.StatusOK)
			var p models.UserProfile
			rec.DecodeJSON(t, &p)
			if p.FullName != tt.wantName || p.Role != tt.wantRole {
				t.Errorf("profile = %+v", p)
			}
		})
	}
}
