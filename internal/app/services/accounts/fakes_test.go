package accounts_test

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/mentorhub/internal/app/services/uploads"
	"github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/app/system/identity"
	"github.com/dalemusser/mentorhub/internal/app/system/live"
	"github.com/dalemusser/mentorhub/internal/domain/models"
)

type fakeIdentity struct {
	mu         sync.Mutex
	calls      int
	createErr  error
	signInErr  error
	signOutErr error
	refreshErr error
	verifyErr  error
	claims     map[string]any
	hub        *live.Hub[identity.StateChange]
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{hub: live.NewHub[identity.StateChange](8)}
}

func (f *fakeIdentity) bump() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeIdentity) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeIdentity) CreateUser(_ context.Context, email, _ string) (identity.User, string, error) {
	f.bump()
	if f.createErr != nil {
		return identity.User{}, "", f.createErr
	}
	return identity.User{UID: "uid-" + email, Email: email}, email, nil
}

func (f *fakeIdentity) AnnounceSignIn(u identity.User, idToken string) {
	f.hub.Publish(identity.StateChange{Kind: identity.SignedIn, UID: u.UID, Email: u.Email, IDToken: idToken})
}

func (f *fakeIdentity) SignInWithPassword(_ context.Context, email, _ string) (identity.User, string, error) {
	f.bump()
	if f.signInErr != nil {
		return identity.User{}, "", f.signInErr
	}
	return identity.User{UID: "uid-" + email, Email: email}, email, nil
}

func (f *fakeIdentity) SignOut(context.Context, string) error {
	f.bump()
	return f.signOutErr
}

func (f *fakeIdentity) Refresh(_ context.Context, idToken string) (*identity.Token, error) {
	f.bump()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.token(idToken), nil
}

func (f *fakeIdentity) VerifyIDToken(_ context.Context, raw string, _ bool) (*identity.Token, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.token(raw), nil
}

func (f *fakeIdentity) token(raw string) *identity.Token {
	return &identity.Token{UID: "uid-" + raw, Email: raw, Claims: f.claims}
}

func (f *fakeIdentity) Subscribe() *live.Subscription[identity.StateChange] {
	return f.hub.Subscribe()
}

type fakeProfiles struct {
	mu      sync.Mutex
	byUID   map[string]models.UserProfile
	getErr  error
	saveErr error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byUID: map[string]models.UserProfile{}}
}

func (f *fakeProfiles) Create(_ context.Context, uid, fullName, role string, d profiles.Data) (models.UserProfile, error) {
	if f.saveErr != nil {
		return models.UserProfile{}, f.saveErr
	}
	p := models.UserProfile{
		UID: uid, FullName: fullName, Role: role, Program: d.Program,
		Experience: d.Experience, Specialization: d.Specialization, CurriculumURL: d.CurriculumURL,
	}
	f.mu.Lock()
	f.byUID[uid] = p
	f.mu.Unlock()
	return p, nil
}

func (f *fakeProfiles) Get(_ context.Context, uid string) (models.UserProfile, error) {
	if f.getErr != nil {
		return models.UserProfile{}, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byUID[uid]
	if !ok {
		return models.UserProfile{}, profiles.ErrNotFound
	}
	return p, nil
}

type fakeUploader struct {
	err   error
	calls int
}

func (f *fakeUploader) UploadCV(_ context.Context, _ *uploads.File, userID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://files.test/curriculums/" + userID + "/cv.pdf", nil
}

var errBoom = errors.New("boom")
