package app

import (
	"context"
	"errors"
	"sync"

	"dreamfront/internal/adapter/memory"
	"dreamfront/internal/domain"
)

type mockAuthAPI struct {
	loginFn    func(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error)
	registerFn func(ctx context.Context, in domain.SignupInput) (*domain.AuthResult, error)
	refreshFn  func(ctx context.Context, refreshToken string) (*domain.Credential, error)
	logoutFn   func(ctx context.Context) error
	meFn       func(ctx context.Context) (*domain.User, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return nil, errors.New("login not configured")
}

func (m *mockAuthAPI) Register(ctx context.Context, in domain.SignupInput) (*domain.AuthResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, errors.New("register not configured")
}

func (m *mockAuthAPI) Refresh(ctx context.Context, refreshToken string) (*domain.Credential, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, errors.New("refresh not configured")
}

func (m *mockAuthAPI) Logout(ctx context.Context) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx)
	}
	return nil
}

func (m *mockAuthAPI) Me(ctx context.Context) (*domain.User, error) {
	if m.meFn != nil {
		return m.meFn(ctx)
	}
	return nil, errors.New("me not configured")
}

// failingBackend fails every operation.
type failingBackend struct{}

func (failingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (failingBackend) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk on fire")
}

func (failingBackend) Delete(ctx context.Context, key string) error {
	return errors.New("disk on fire")
}

func (failingBackend) Clear(ctx context.Context) error {
	return errors.New("disk on fire")
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *recordingNotifier) Notes() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.notes...)
}

var testUser = domain.User{ID: "1", Email: "a@b.c", Username: "dreamer", FullName: "Test User", IsVerified: true}

func newTestSession(api domain.AuthAPI) (*SessionService, *Store, *memory.DB) {
	db := memory.New()
	store := NewStore(db, nil)
	return NewSessionService(api, store, nil), store, db
}

func okLogin(token string) func(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	return func(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
		u := testUser
		u.Email = in.Email
		return &domain.AuthResult{User: u, Credential: domain.Credential{AccessToken: token, RefreshToken: "r-" + token, TokenType: "bearer"}}, nil
	}
}
