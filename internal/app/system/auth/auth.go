package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/respond"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	idTokenKey = "id_token"

	MsgSignInRequired = "Debes iniciar sesión."
	MsgForbidden      = "No tienes permiso para realizar esta acción."
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what LoadSessionUser injects into r.Context().
type SessionUser struct {
	ID      string
	Name    string
	Email   string
	Role    string
	IsAdmin bool
	IDToken string
}

// HasRole reports whether the user holds role. Admin-claim holders count as
// "admin" whatever their profile role is.
func (u *SessionUser) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "admin" && u.IsAdmin {
		return true
	}
	return strings.ToLower(u.Role) == role
}

// Resolver turns a raw ID token into a user. It returns (nil, nil) when the
// token does not describe a live session.
type Resolver func(ctx context.Context, idToken string) (*SessionUser, error)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser returns r carrying u, for handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager stores the ID token in a signed cookie and resolves it into
// a SessionUser on every request.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true), cookies are Secure + SameSite=None.
// In local dev over http://localhost, use secure=false so cookies are accepted.
// An empty sessionKey gets a random key, so sessions do not survive restarts.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if name == "" {
		return nil, errors.New("session name is empty")
	}

	key := []byte(sessionKey)
	switch {
	case sessionKey == "":
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("could not generate a session key")
		}
		logger.Warn("session key not configured; using an ephemeral random key")
	case len(sessionKey) < 32:
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore(key)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts
	store.MaxAge(opts.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetToken writes idToken into the session cookie.
func (sm *SessionManager) SetToken(w http.ResponseWriter, r *http.Request, idToken string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[idTokenKey] = idToken
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Token returns the request's ID token: the Bearer header wins over the
// session cookie.
func (sm *SessionManager) Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return ""
	}
	tok, _ := sess.Values[idTokenKey].(string)
	return tok
}

// Clear expires the session cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter, r *http.Request) {
	sess, _ := sm.store.Get(r, sm.name)
	delete(sess.Values, idTokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		sm.log.Warn("clear session", zap.Error(err))
	}
}

// LoadSessionUser injects the user into context when the request carries a
// token that resolve accepts. Resolution failures leave the request anonymous.
func (sm *SessionManager) LoadSessionUser(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := sm.Token(r)
			if tok == "" || resolve == nil {
				next.ServeHTTP(w, r)
				return
			}
			u, err := resolve(r.Context(), tok)
			if err != nil {
				sm.log.Warn("session resolution failed", zap.Error(err))
			}
			if u != nil {
				u.IDToken = tok
				r = withUser(r, u)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignedIn answers 401 unless LoadSessionUser found a user.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		respond.Message(w, http.StatusUnauthorized, MsgSignInRequired)
	})
}

// RequireRole answers 401 for anonymous requests and 403 for users holding
// none of the allowed roles. Matching is case-insensitive.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Message(w, http.StatusUnauthorized, MsgSignInRequired)
				return
			}
			for _, role := range allowed {
				if u.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			respond.Message(w, http.StatusForbidden, MsgForbidden)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}
