package availability_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/features/availability"
	"github.com/dalemusser/mentorhub/internal/app/services/scheduling"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *availability.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.NewBackend(t, db)
	svc := scheduling.FromBackend(c, scheduling.PolicyOpen, 50*time.Millisecond, nil, nil, zap.NewNop())
	return availability.NewHandler(svc, zap.NewNop())
}

func slotRequest(t *testing.T, mentorID string, user testutil.TestUser, body any) *http.Request {
	t.Helper()
	req := testutil.NewJSONRequest(t, "POST", "/mentors/"+mentorID+"/availability", body)
	req = testutil.WithUser(req, user)
	return testutil.WithChiURLParam(req, "mentorID", mentorID)
}

func TestAddListRemove(t *testing.T) {
	h := newTestHandler(t)
	mentor := testutil.MentorUser()

	rec := testutil.NewRecorder()
	h.HandleAdd(rec, slotRequest(t, mentor.ID, mentor, map[string]string{
		"date": "2026-11-02", "start": "09:00", "end": "10:00",
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		ID string `json:"id"`
	}
	rec.DecodeJSON(t, &created)

	list := func() []models.AvailabilitySlot {
		req := testutil.NewAuthenticatedRequest("GET", "/mentors/"+mentor.ID+"/availability", testutil.EmprendedorUser())
		req = testutil.WithChiURLParam(req, "mentorID", mentor.ID)
		rec := testutil.NewRecorder()
		h.ServeList(rec, req)
		rec.AssertStatus(t, http.StatusOK)
		var slots []models.AvailabilitySlot
		rec.DecodeJSON(t, &slots)
		return slots
	}

	slots := list()
	if len(slots) != 1 || slots[0].ID.Hex() != created.ID || slots[0].Start != "09:00" {
		t.Fatalf("slots = %+v", slots)
	}

	req := testutil.NewAuthenticatedRequest("DELETE", "/", mentor)
	req = testutil.WithChiURLParam(req, "mentorID", mentor.ID)
	req = testutil.WithChiURLParam(req, "slotID", created.ID)
	rec = testutil.NewRecorder()
	h.HandleRemove(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	if slots := list(); len(slots) != 0 {
		t.Errorf("expected no live slots after removal, got %+v", slots)
	}
}

func TestHandleAdd_Forbidden(t *testing.T) {
	h := newTestHandler(t)
	owner := testutil.MentorUser()

	for _, u := range []testutil.TestUser{testutil.MentorUser(), testutil.EmprendedorUser()} {
		rec := testutil.NewRecorder()
		h.HandleAdd(rec, slotRequest(t, owner.ID, u, map[string]string{
			"date": "2026-11-02", "start": "09:00", "end": "10:00",
		}))
		rec.AssertStatus(t, http.StatusForbidden)
	}
}

func TestHandleAdd_AdminOnBehalfOfMentor(t *testing.T) {
	h := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.HandleAdd(rec, slotRequest(t, "mentor-x", testutil.AdminUser(), map[string]string{
		"date": "2026-11-02", "start": "09:00", "end": "10:00",
	}))
	rec.AssertStatus(t, http.StatusCreated)
}

func TestHandleAdd_MissingField(t *testing.T) {
	h := newTestHandler(t)
	mentor := testutil.MentorUser()

	rec := testutil.NewRecorder()
	h.HandleAdd(rec, slotRequest(t, mentor.ID, mentor, map[string]string{"date": "2026-11-02", "start": "09:00"}))
	rec.AssertStatus(t, http.StatusBadRequest)
	if msg := rec.ErrorMessage(t); msg != "Hora de fin es obligatorio." {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleRemove_BadID(t *testing.T) {
	h := newTestHandler(t)
	mentor := testutil.MentorUser()

	req := testutil.NewAuthenticatedRequest("DELETE", "/", mentor)
	req = testutil.WithChiURLParam(req, "mentorID", mentor.ID)
	req = testutil.WithChiURLParam(req, "slotID", "not-an-id")
	rec := testutil.NewRecorder()
	h.HandleRemove(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}
