// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/mentorhub/internal/app/services/accounts"
	"github.com/dalemusser/mentorhub/internal/app/services/uploads"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/auditlog"
	"github.com/dalemusser/mentorhub/internal/app/system/auth"
	"github.com/dalemusser/mentorhub/internal/app/system/formutil"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/dalemusser/mentorhub/internal/app/system/timeouts"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// MsgTooManySignUps is returned when an IP exceeds the sign-up limit.
const MsgTooManySignUps = "Demasiados registros desde esta red. Intenta más tarde."

// maxBody leaves room for the form fields around a maximum-size CV.
const maxBody = 2 * uploads.MaxSize

type Handler struct {
	Accounts   *accounts.Service
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.Limiter
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

func NewHandler(
	acc *accounts.Service,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.Limiter,
	audit *auditlog.Logger,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts:   acc,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		Metrics:    m,
		Log:        logger,
	}
}

type signUpForm struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"fullName" validate:"max=120" label:"Nombre completo"`
	Role           string `json:"role"`
	Program        string `json:"program"`
	Experience     string `json:"experience" validate:"max=4000" label:"Experiencia"`
	Specialization string `json:"specialization" validate:"max=200" label:"Especialización"`
}

type signUpResponse struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	IDToken string `json:"idToken"`
}

// HandleSignUp handles POST /auth/signup. Mentors may attach their CV as the
// multipart file "curriculum".
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		h.Metrics.SignUp(metrics.OutcomeLimited)
		respond.Message(w, http.StatusTooManyRequests, MsgTooManySignUps)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var form signUpForm
	if err := formutil.Bind(r, &form); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	in := accounts.SignUpInput{
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
		Role:     form.Role,
		Program:  form.Program,
	}
	if form.Role == models.RoleMentor {
		in.Mentor = &accounts.MentorData{
			Experience:     form.Experience,
			Program:        form.Program,
			Specialization: form.Specialization,
		}
		cv, closeCV, err := curriculum(r)
		if err != nil {
			respond.Error(w, r, h.Log, err)
			return
		}
		defer closeCV()
		in.Mentor.Curriculum = cv
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, tok, err := h.Accounts.SignUp(ctx, in)
	if err != nil {
		h.AuditLog.SignUp(r.Context(), r, "", form.Email, form.Role, false, apperr.MessageOf(err, ""))
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.SignUp(r.Context(), r, u.UID, u.Email, form.Role, true, "")

	if err := h.SessionMgr.SetToken(w, r, tok); err != nil {
		h.Log.Warn("sign-up: could not set session cookie", zap.String("uid", u.UID), zap.Error(err))
	}
	respond.JSON(w, http.StatusCreated, signUpResponse{UID: u.UID, Email: u.Email, IDToken: tok})
}

// curriculum returns the optional "curriculum" file of a multipart request.
func curriculum(r *http.Request) (*uploads.File, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}
	f, hdr, err := r.FormFile("curriculum")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperr.Upload(uploads.MsgUploadError, err)
	}
	return &uploads.File{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
