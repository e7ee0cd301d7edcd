// Package accounts implements sign-up, sign-in, sign-out and session
// resolution on top of the identity provider and the profile store.
package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mentorhub/internal/app/backend"
	"github.com/dalemusser/mentorhub/internal/app/services/uploads"
	"github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/apperr"
	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/app/system/metrics"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	MsgAdminSignUp       = "No puedes registrarte como administrador"
	MsgInvalidRole       = "Rol inválido"
	MsgProgramRequired   = "Los emprendedores deben seleccionar un programa"
	MsgMentorIncomplete  = "Los mentores deben completar todos los campos obligatorios"
	MsgWeakPassword      = "La contraseña debe tener al menos 6 caracteres."
	MsgEmailInUse        = "Este correo ya está registrado."
	MsgSignUpFailed      = "Error al registrarse."
	MsgBadCredentials    = "Correo o contraseña incorrectos."
	MsgSignInFailed      = "Credenciales incorrectas o usuario no encontrado."
	MsgInvalidAPIKey     = "Error de configuración: apiKey inválida (error: auth/invalid-api-key). Revisa MENTORHUB_API_KEY."
	MsgSignOutFailed     = "Error al cerrar sesión"
	MsgProfileLoadFailed = "No se pudo cargar el perfil del usuario."
)

// RoleUnknown is reported for sessions with neither a profile nor the
// admin claim.
const RoleUnknown = "usuario"

// Identity is the credential backend.
type Identity interface {
	CreateUser(ctx context.Context, email, password string) (identity.User, string, error)
	AnnounceSignIn(u identity.User, idToken string)
	SignInWithPassword(ctx context.Context, email, password string) (identity.User, string, error)
	SignOut(ctx context.Context, idToken string) error
	Refresh(ctx context.Context, idToken string) (*identity.Token, error)
	VerifyIDToken(ctx context.Context, raw string, checkRevoked bool) (*identity.Token, error)
	Subscribe() *live.Subscription[identity.StateChange]
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	Create(ctx context.Context, uid, fullName, role string, d profiles.Data) (models.UserProfile, error)
	Get(ctx context.Context, uid string) (models.UserProfile, error)
}

// CVUploader stores mentor curriculums.
type CVUploader interface {
	UploadCV(ctx context.Context, f *uploads.File, userID string) (string, error)
}

// UserHandle is the minimal identity returned by sign-up and sign-in.
type UserHandle struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Session is a resolved, augmented session.
type Session struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"isAdmin"`
	Role     string `json:"role,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// MentorData carries the mentor-only sign-up fields.
type MentorData struct {
	Experience     string
	Program        string
	Specialization string
	Curriculum     *uploads.File
}

// SignUpInput is a registration request.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Role     string
	Program  string
	Mentor   *MentorData
}

// Deps are the collaborators of a Service.
type Deps struct {
	Identity Identity
	Profiles ProfileStore
	Uploads  CVUploader
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// Service is the auth/session service.
type Service struct {
	id       Identity
	profiles ProfileStore
	uploads  CVUploader
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// New creates a Service from explicit collaborators.
func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{id: d.Identity, profiles: d.Profiles, uploads: d.Uploads, metrics: d.Metrics, log: log}
}

// FromBackend wires a Service to the shared backend handles.
func FromBackend(c *backend.Client, up *uploads.Service, m *metrics.Metrics, log *zap.Logger) *Service {
	return New(Deps{
		Identity: c.Auth,
		Profiles: profiles.New(c.DB),
		Uploads:  up,
		Metrics:  m,
		Log:      log,
	})
}

// ValidateSignUp runs the local checks that precede any backend call.
func ValidateSignUp(in SignUpInput) error {
	switch in.Role {
	case models.RoleAdmin:
		return apperr.Validation(MsgAdminSignUp)
	case models.RoleEmprendedor:
		if strings.TrimSpace(in.Program) == "" {
			return apperr.Validation(MsgProgramRequired)
		}
	case models.RoleMentor:
		m := in.Mentor
		if m == nil || strings.TrimSpace(m.Experience) == "" ||
			strings.TrimSpace(m.Program) == "" || strings.TrimSpace(m.Specialization) == "" {
			return apperr.Validation(MsgMentorIncomplete)
		}
	default:
		return apperr.Validation(MsgInvalidRole)
	}
	if len(in.Password) < identity.MinPasswordLength {
		return apperr.Validation(MsgWeakPassword)
	}
	return nil
}

// SignUp registers a mentor or emprendedor, uploads the mentor's CV when
// present and writes the profile. It returns the new user and a signed-in
// ID token.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (UserHandle, string, error) {
	if err := ValidateSignUp(in); err != nil {
		s.metrics.SignUp(metrics.OutcomeFailure)
		return UserHandle{}, "", err
	}

	u, tok, err := s.id.CreateUser(ctx, in.Email, in.Password)
	if err != nil {
		s.log.Warn("sign-up rejected", zap.String("code", identity.CodeOf(err)), zap.Error(err))
		s.metrics.SignUp(metrics.OutcomeFailure)
		return UserHandle{}, "", signUpError(err)
	}

	data := profiles.Data{Program: in.Program}
	if in.Role == models.RoleMentor {
		data = profiles.Data{
			Program:        in.Mentor.Program,
			Experience:     htmlsanitize.PlainText(in.Mentor.Experience),
			Specialization: htmlsanitize.PlainText(in.Mentor.Specialization),
		}
		if in.Mentor.Curriculum != nil && s.uploads != nil {
			url, err := s.uploads.UploadCV(ctx, in.Mentor.Curriculum, u.UID)
			if err != nil {
				// The mentor can attach the CV later.
				s.log.Error("cv upload failed during sign-up", zap.String("uid", u.UID), zap.Error(err))
			} else {
				data.CurriculumURL = url
			}
		}
	}

	if _, err := s.profiles.Create(ctx, u.UID, htmlsanitize.PlainText(in.FullName), in.Role, data); err != nil {
		s.log.Error("profile create failed", zap.String("uid", u.UID), zap.Error(err))
		s.metrics.SignUp(metrics.OutcomeFailure)
		return UserHandle{}, "", apperr.Store(MsgSignUpFailed, err)
	}
	s.id.AnnounceSignIn(u, tok)

	s.metrics.SignUp(metrics.OutcomeSuccess)
	return UserHandle{UID: u.UID, Email: u.Email}, tok, nil
}

// SignIn authenticates email and password.
func (s *Service) SignIn(ctx context.Context, email, password string) (UserHandle, string, error) {
	u, tok, err := s.id.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.log.Info("sign-in rejected", zap.String("code", identity.CodeOf(err)))
		s.metrics.SignIn(metrics.OutcomeFailure)
		return UserHandle{}, "", signInError(err)
	}
	s.metrics.SignIn(metrics.OutcomeSuccess)
	return UserHandle{UID: u.UID, Email: u.Email}, tok, nil
}

// SignOut ends the session carried by idToken.
func (s *Service) SignOut(ctx context.Context, idToken string) error {
	if err := s.id.SignOut(ctx, idToken); err != nil {
		s.log.Error("sign-out failed", zap.Error(err))
		return apperr.Session(MsgSignOutFailed, err)
	}
	return nil
}

// GetCurrentUser resolves idToken into an augmented session. It returns
// nil, nil when the token does not identify a live session.
func (s *Service) GetCurrentUser(ctx context.Context, idToken string) (*Session, error) {
	if idToken == "" {
		return nil, nil
	}
	tok, err := s.id.Refresh(ctx, idToken)
	if err != nil {
		if identity.CodeOf(err) != identity.CodeInternal {
			return nil, nil
		}
		// Claims could not be refreshed; fall back to the signed token.
		s.log.Warn("claim refresh failed", zap.Error(err))
		vt, verr := s.id.VerifyIDToken(ctx, idToken, false)
		if verr != nil {
			return nil, nil
		}
		return &Session{UID: vt.UID, Email: vt.Email, Role: RoleUnknown}, nil
	}
	return s.augment(ctx, tok), nil
}

func (s *Service) augment(ctx context.Context, tok *identity.Token) *Session {
	sess := &Session{UID: tok.UID, Email: tok.Email, IsAdmin: tok.IsAdmin()}

	p, err := s.profiles.Get(ctx, tok.UID)
	switch {
	case err == nil:
		sess.Role = p.Role
		sess.FullName = p.FullName
	case errors.Is(err, profiles.ErrNotFound):
	default:
		s.log.Warn("profile lookup failed while resolving session", zap.String("uid", tok.UID), zap.Error(err))
	}
	if sess.Role == "" {
		if sess.IsAdmin {
			sess.Role = models.RoleAdmin
		} else {
			sess.Role = RoleUnknown
		}
	}
	return sess
}

// GetUserProfile returns the stored profile for uid, or a placeholder
// emprendedor profile when none exists.
func (s *Service) GetUserProfile(ctx context.Context, uid string) (models.UserProfile, error) {
	p, err := s.profiles.Get(ctx, uid)
	if errors.Is(err, profiles.ErrNotFound) {
		return models.PlaceholderProfile(uid), nil
	}
	if err != nil {
		s.log.Error("profile read failed", zap.String("uid", uid), zap.Error(err))
		return models.UserProfile{}, apperr.Store(MsgProfileLoadFailed, err)
	}
	return p, nil
}

func signUpError(err error) error {
	var ie *identity.Error
	if !errors.As(err, &ie) {
		return apperr.Credential(MsgSignUpFailed, err)
	}
	switch {
	case ie.Code == identity.CodeEmailAlreadyInUse:
		return apperr.Credential(MsgEmailInUse, err)
	case ie.Code == identity.CodeWeakPassword:
		return apperr.Credential(MsgWeakPassword, err)
	case strings.Contains(ie.Code, "api-key"):
		return apperr.Configuration(MsgInvalidAPIKey, err)
	default:
		return apperr.Credential(ie.Code+": "+ie.Message, err)
	}
}

func signInError(err error) error {
	var ie *identity.Error
	if !errors.As(err, &ie) {
		return apperr.Credential(MsgSignInFailed, err)
	}
	switch {
	case ie.Code == identity.CodeWrongPassword,
		ie.Code == identity.CodeUserNotFound,
		ie.Code == identity.CodeInvalidCredential:
		return apperr.Credential(MsgBadCredentials, err)
	case strings.Contains(ie.Code, "api-key"):
		return apperr.Configuration(MsgInvalidAPIKey, err)
	default:
		return apperr.Credential(ie.Code+": "+ie.Message, err)
	}
}
