// Package identity is the credential backend: email/password accounts,
// signed ID tokens with custom claims, revocation and sign-in/sign-out
// notifications.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/inputval"
	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// Config configures a Provider.
type Config struct {
	APIKey      string
	ProjectID   string
	TokenSecret []byte
	TokenTTL    time.Duration
	BcryptCost  int
}

// User is the public view of an identity record.
type User struct {
	UID          string
	Email        string
	CustomClaims map[string]any
	Disabled     bool
}

// StateKind labels a session transition.
type StateKind string

const (
	SignedIn  StateKind = "SIGNED_IN"
	SignedOut StateKind = "SIGNED_OUT"
)

// StateChange is published whenever a session starts or ends.
type StateChange struct {
	Kind    StateKind
	UID     string
	Email   string
	IDToken string
}

// Provider implements the identity backend on MongoDB.
type Provider struct {
	c   *mongo.Collection
	cfg Config
	hub *live.Hub[StateChange]
	log *zap.Logger
	now func() time.Time
}

// New creates a Provider. A missing API key or token secret is a
// configuration error and fails immediately.
func New(db *mongo.Database, cfg Config, log *zap.Logger) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("identity: api key is required")
	}
	if len(cfg.TokenSecret) == 0 {
		return nil, errors.New("identity: token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = zap.NewNop()
	}
	if !wellFormedAPIKey(cfg.APIKey) {
		log.Warn("api key looks malformed; credential calls will be rejected")
	}
	return &Provider{
		c:   db.Collection("identity_users"),
		cfg: cfg,
		hub: live.NewHub[StateChange](16),
		log: log,
		now: time.Now,
	}, nil
}

// SetClock overrides the time source. Used by tests.
func (p *Provider) SetClock(now func() time.Time) { p.now = now }

// EnsureIndexes creates the unique email index.
func (p *Provider) EnsureIndexes(ctx context.Context) error {
	_, err := p.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	return err
}

// Subscribe returns a subscription to session transitions.
func (p *Provider) Subscribe() *live.Subscription[StateChange] {
	return p.hub.Subscribe()
}

func wellFormedAPIKey(k string) bool {
	return len(k) >= 16 && !strings.ContainsAny(k, " \t\r\n")
}

func (p *Provider) checkAPIKey() error {
	if !wellFormedAPIKey(p.cfg.APIKey) {
		return codedErr(CodeInvalidAPIKey, "API key not valid. Please pass a valid API key.", nil)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new credential and returns a signed-in token.
// Unlike SignInWithPassword it does not announce the sign-in; callers that
// finish account setup afterwards call AnnounceSignIn once it is complete.
func (p *Provider) CreateUser(ctx context.Context, email, password string) (User, string, error) {
	if err := p.checkAPIKey(); err != nil {
		return User{}, "", err
	}
	email = normalizeEmail(email)
	if !inputval.IsValidEmail(email) {
		return User{}, "", codedErr(CodeInvalidEmail, "The email address is badly formatted.", nil)
	}
	if len(password) < MinPasswordLength {
		return User{}, "", codedErr(CodeWeakPassword, "Password should be at least 6 characters", nil)
	}

	rec, err := p.insert(ctx, email, password, nil)
	if err != nil {
		return User{}, "", err
	}

	tok, err := p.issue(ctx, rec, false)
	if err != nil {
		return User{}, "", err
	}
	return toUser(rec), tok, nil
}

// AnnounceSignIn publishes a SIGNED_IN transition for a session created by
// CreateUser.
func (p *Provider) AnnounceSignIn(u User, idToken string) {
	p.hub.Publish(StateChange{Kind: SignedIn, UID: u.UID, Email: u.Email, IDToken: idToken})
}

func (p *Provider) insert(ctx context.Context, email, password string, claims map[string]any) (models.IdentityRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return models.IdentityRecord{}, codedErr(CodeInternal, "could not hash password", err)
	}
	now := p.now().UTC()
	rec := models.IdentityRecord{
		UID:          newUID(),
		Email:        email,
		PasswordHash: string(hash),
		CustomClaims: claims,
		CreatedAt:    now,
	}
	if _, err := p.c.InsertOne(ctx, rec); err != nil {
		if wafflemongo.IsDup(err) {
			return models.IdentityRecord{}, codedErr(CodeEmailAlreadyInUse, "The email address is already in use by another account.", err)
		}
		return models.IdentityRecord{}, codedErr(CodeInternal, "could not create user", err)
	}
	return rec, nil
}

// SignInWithPassword verifies credentials and returns a fresh ID token.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (User, string, error) {
	if err := p.checkAPIKey(); err != nil {
		return User{}, "", err
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, "", codedErr(CodeInvalidCredential, "missing email or password", nil)
	}

	rec, err := p.findByEmail(ctx, email)
	if err != nil {
		return User{}, "", err
	}
	if rec.Disabled {
		return User{}, "", codedErr(CodeUserDisabled, "The user account has been disabled.", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return User{}, "", codedErr(CodeWrongPassword, "The password is invalid.", nil)
	}

	tok, err := p.issue(ctx, rec, true)
	if err != nil {
		return User{}, "", err
	}
	return toUser(rec), tok, nil
}

// issue signs a token for rec and stamps the sign-in time. When announce is
// set the sign-in is published to subscribers.
func (p *Provider) issue(ctx context.Context, rec models.IdentityRecord, announce bool) (string, error) {
	now := p.now().UTC()
	tok, err := p.sign(rec, now)
	if err != nil {
		return "", codedErr(CodeInternal, "could not sign token", err)
	}
	if _, err := p.c.UpdateByID(ctx, rec.UID, bson.M{"$set": bson.M{"last_sign_in_at": now}}); err != nil {
		p.log.Warn("failed to record sign-in time", zap.String("uid", rec.UID), zap.Error(err))
	}
	if announce {
		p.hub.Publish(StateChange{Kind: SignedIn, UID: rec.UID, Email: rec.Email, IDToken: tok})
	}
	return tok, nil
}

// SignOut revokes every token issued to the token's subject before now.
func (p *Provider) SignOut(ctx context.Context, idToken string) error {
	tok, err := p.VerifyIDToken(ctx, idToken, false)
	if err != nil {
		return err
	}
	if err := p.RevokeTokens(ctx, tok.UID); err != nil {
		return err
	}
	p.hub.Publish(StateChange{Kind: SignedOut, UID: tok.UID, Email: tok.Email})
	return nil
}

// RevokeTokens invalidates all tokens issued to uid so far.
func (p *Provider) RevokeTokens(ctx context.Context, uid string) error {
	res, err := p.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{"tokens_valid_after": p.now().UTC()}})
	if err != nil {
		return codedErr(CodeInternal, "could not revoke tokens", err)
	}
	if res.MatchedCount == 0 {
		return codedErr(CodeUserNotFound, "There is no user record corresponding to this identifier.", nil)
	}
	return nil
}

// Refresh verifies idToken against the stored record and returns it with
// the record's current custom claims rather than the ones signed into it.
func (p *Provider) Refresh(ctx context.Context, idToken string) (*Token, error) {
	tok, err := p.VerifyIDToken(ctx, idToken, true)
	if err != nil {
		return nil, err
	}
	rec, err := p.findByUID(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	tok.Claims = copyClaims(rec.CustomClaims)
	return tok, nil
}

// GetUser loads a user by uid.
func (p *Provider) GetUser(ctx context.Context, uid string) (User, error) {
	rec, err := p.findByUID(ctx, uid)
	if err != nil {
		return User{}, err
	}
	return toUser(rec), nil
}

// GetUserByEmail loads a user by email.
func (p *Provider) GetUserByEmail(ctx context.Context, email string) (User, error) {
	rec, err := p.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	return toUser(rec), nil
}

// EnsureUser returns the user for email, creating it with password when
// missing. An existing user has its password replaced. created reports
// whether a new record was inserted.
func (p *Provider) EnsureUser(ctx context.Context, email, password string) (u User, created bool, err error) {
	email = normalizeEmail(email)
	if !inputval.IsValidEmail(email) {
		return User{}, false, codedErr(CodeInvalidEmail, "The email address is badly formatted.", nil)
	}
	if len(password) < MinPasswordLength {
		return User{}, false, codedErr(CodeWeakPassword, "Password should be at least 6 characters", nil)
	}

	rec, err := p.findByEmail(ctx, email)
	switch {
	case err == nil:
		hash, herr := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
		if herr != nil {
			return User{}, false, codedErr(CodeInternal, "could not hash password", herr)
		}
		if _, uerr := p.c.UpdateByID(ctx, rec.UID, bson.M{"$set": bson.M{"password_hash": string(hash)}}); uerr != nil {
			return User{}, false, codedErr(CodeInternal, "could not update password", uerr)
		}
		return toUser(rec), false, nil
	case CodeOf(err) == CodeUserNotFound:
		rec, err = p.insert(ctx, email, password, nil)
		if err != nil {
			return User{}, false, err
		}
		return toUser(rec), true, nil
	default:
		return User{}, false, err
	}
}

// SetCustomUserClaims replaces the custom claims on uid. Existing tokens
// keep their old claims until refreshed.
func (p *Provider) SetCustomUserClaims(ctx context.Context, uid string, claims map[string]any) error {
	res, err := p.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{"custom_claims": claims}})
	if err != nil {
		return codedErr(CodeInternal, "could not set claims", err)
	}
	if res.MatchedCount == 0 {
		return codedErr(CodeUserNotFound, "There is no user record corresponding to this identifier.", nil)
	}
	return nil
}

// SetDisabled enables or disables sign-in for uid.
func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	res, err := p.c.UpdateByID(ctx, uid, bson.M{"$set": bson.M{"disabled": disabled}})
	if err != nil {
		return codedErr(CodeInternal, "could not update user", err)
	}
	if res.MatchedCount == 0 {
		return codedErr(CodeUserNotFound, "There is no user record corresponding to this identifier.", nil)
	}
	return nil
}

func (p *Provider) findByEmail(ctx context.Context, email string) (models.IdentityRecord, error) {
	return p.findOne(ctx, bson.M{"email": email})
}

func (p *Provider) findByUID(ctx context.Context, uid string) (models.IdentityRecord, error) {
	return p.findOne(ctx, bson.M{"_id": uid})
}

func (p *Provider) findOne(ctx context.Context, filter bson.M) (models.IdentityRecord, error) {
	var rec models.IdentityRecord
	err := p.c.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rec, codedErr(CodeUserNotFound, "There is no user record corresponding to this identifier.", nil)
	}
	if err != nil {
		return rec, codedErr(CodeInternal, "could not load user", err)
	}
	return rec, nil
}

func toUser(rec models.IdentityRecord) User {
	return User{
		UID:          rec.UID,
		Email:        rec.Email,
		CustomClaims: copyClaims(rec.CustomClaims),
		Disabled:     rec.Disabled,
	}
}

func copyClaims(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// newUID returns a 28-character identifier derived from a random UUID.
func newUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:28]
}
