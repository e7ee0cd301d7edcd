package signup_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/features/signup"
	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/services/uploads"
	"github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, limiter *ratelimit.Limiter) (*signup.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	c := testutil.NewBackend(t, db)

	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	acc := accounts.FromBackend(c, uploads.New(c.Blob, logger), nil, logger)
	return signup.NewHandler(acc, sm, limiter, nil, nil, logger), db
}

func mentorRequest(t *testing.T, withCV bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"email":          "mentora@example.com",
		"password":       "secret123",
		"fullName":       "María <b>Mentora</b>",
		"role":           models.RoleMentor,
		"program":        "Aceleración",
		"experience":     "10 años",
		"specialization": "Finanzas",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if withCV {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="curriculum"; filename="cv.pdf"`)
		hdr.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		_, _ = part.Write([]byte("%PDF-1.4 test"))
	}
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/auth/signup", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleSignUp_MentorWithCV(t *testing.T) {
	h, db := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, mentorRequest(t, true))
	rec.AssertStatus(t, http.StatusCreated)

	var body struct {
		UID     string `json:"uid"`
		IDToken string `json:"idToken"`
	}
	rec.DecodeJSON(t, &body)
	if body.UID == "" || body.IDToken == "" {
		t.Fatalf("body = %+v", body)
	}

	p, err := profiles.New(db).Get(ctx, body.UID)
	if err != nil {
		t.Fatalf("profile Get: %v", err)
	}
	if p.Role != models.RoleMentor || p.Specialization != "Finanzas" {
		t.Errorf("profile = %+v", p)
	}
	if p.FullName != "María Mentora" {
		t.Errorf("FullName = %q, want markup stripped", p.FullName)
	}
	if !strings.Contains(p.CurriculumURL, "curriculums/"+body.UID+"/") {
		t.Errorf("CurriculumURL = %q", p.CurriculumURL)
	}
}

func TestHandleSignUp_MentorWithoutCV(t *testing.T) {
	h, db := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, mentorRequest(t, false))
	rec.AssertStatus(t, http.StatusCreated)

	var body struct {
		UID string `json:"uid"`
	}
	rec.DecodeJSON(t, &body)
	p, err := profiles.New(db).Get(ctx, body.UID)
	if err != nil {
		t.Fatalf("profile Get: %v", err)
	}
	if p.CurriculumURL != "" {
		t.Errorf("CurriculumURL = %q, want empty", p.CurriculumURL)
	}
}

func TestHandleSignUp_Emprendedor(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	req := testutil.NewJSONRequest(t, "POST", "/auth/signup", map[string]string{
		"email": "emp@example.com", "password": "secret123", "fullName": "Emp",
		"role": models.RoleEmprendedor, "program": "Incubación",
	})
	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
		}
	}
	if !found {
		t.Error("expected session cookie to be set")
	}
}

func TestHandleSignUp_Rejections(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		msg    string
	}{
		{
			name:   "admin role",
			body:   map[string]string{"email": "x@example.com", "password": "secret123", "role": models.RoleAdmin},
			status: http.StatusBadRequest,
			msg:    accounts.MsgAdminSignUp,
		},
		{
			name:   "emprendedor without program",
			body:   map[string]string{"email": "x@example.com", "password": "secret123", "role": models.RoleEmprendedor},
			status: http.StatusBadRequest,
			msg:    accounts.MsgProgramRequired,
		},
		{
			name:   "short password",
			body:   map[string]string{"email": "x@example.com", "password": "123", "role": models.RoleEmprendedor, "program": "P"},
			status: http.StatusBadRequest,
			msg:    accounts.MsgWeakPassword,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleSignUp(rec, testutil.NewJSONRequest(t, "POST", "/auth/signup", tt.body))
			rec.AssertStatus(t, tt.status)
			if msg := rec.ErrorMessage(t); msg != tt.msg {
				t.Errorf("message = %q, want %q", msg, tt.msg)
			}
		})
	}
}

func TestHandleSignUp_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	body := map[string]string{
		"email": "dup@example.com", "password": "secret123",
		"role": models.RoleEmprendedor, "program": "Incubación",
	}

	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewJSONRequest(t, "POST", "/auth/signup", body))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewJSONRequest(t, "POST", "/auth/signup", body))
	rec.AssertStatus(t, http.StatusUnauthorized)
	if msg := rec.ErrorMessage(t); msg != accounts.MsgEmailInUse {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleSignUp_RateLimited(t *testing.T) {
	h, _ := newTestHandler(t, ratelimit.New(1, time.Hour))
	body := map[string]string{"email": "x@example.com", "password": "secret123", "role": models.RoleAdmin}

	rec := testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewJSONRequest(t, "POST", "/auth/signup", body))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.HandleSignUp(rec, testutil.NewJSONRequest(t, "POST", "/auth/signup", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}
