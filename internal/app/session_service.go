// Package app holds the application services: the session state machine,
// typed persistence and the controller reacting to gateway events.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"dreamfront/internal/domain"
	"dreamfront/internal/logger"
)

var _ oauth2.TokenSource = (*SessionService)(nil)

// SessionService owns the authentication state machine.
//
// State is guarded by mu, which is never held across a network call. writeMu
// serializes transitions with their persistence so the persisted keys always
// follow the order of in-memory transitions. Each login, signup and logout
// advances gen; a remote result whose generation is no longer current is
// discarded.
type SessionService struct {
	api   domain.AuthAPI
	store *Store
	log   *slog.Logger
	now   func() time.Time

	writeMu sync.Mutex

	mu        sync.Mutex
	state     domain.State
	user      *domain.User
	cred      *domain.Credential
	pending   int
	gen       uint64
	listeners map[int]func(domain.Snapshot)
	nextID    int
}

// NewSessionService creates a session in the Hydrating state.
func NewSessionService(api domain.AuthAPI, store *Store, log *slog.Logger) *SessionService {
	if log == nil {
		log = logger.Discard()
	}
	return &SessionService{
		api:       api,
		store:     store,
		log:       log.With(logger.Component("session")),
		now:       time.Now,
		state:     domain.StateHydrating,
		listeners: make(map[int]func(domain.Snapshot)),
	}
}

// Snapshot returns the current session view.
func (s *SessionService) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive the snapshot after every transition.
func (s *SessionService) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Initialize hydrates the session from the store. Only the first call, and
// only while no other transition has resolved the state, has any effect.
func (s *SessionService) Initialize(ctx context.Context) domain.Snapshot {
	s.mu.Lock()
	if s.state != domain.StateHydrating {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}
	s.mu.Unlock()

	token := GetOr(ctx, s.store, domain.KeyAuthToken, "")
	refresh := GetOr(ctx, s.store, domain.KeyRefreshToken, "")
	user, hasUser := Get[domain.User](ctx, s.store, domain.KeyUser)

	s.writeMu.Lock()
	s.mu.Lock()
	if s.state != domain.StateHydrating {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.writeMu.Unlock()
		return snap
	}
	if token != "" && hasUser {
		cred := normalizeCredential(domain.Credential{AccessToken: token, RefreshToken: refresh})
		s.setAuthenticatedLocked(&user, &cred)
	} else {
		s.setAnonymousLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.log.InfoContext(ctx, "session hydrated", logger.State(snap.State))
	s.emit(snap)
	return snap
}

// Login authenticates against the remote API and persists the result.
func (s *SessionService) Login(ctx context.Context, in domain.LoginInput) (domain.Snapshot, error) {
	gen := s.begin()
	res, err := s.api.Login(ctx, in)
	return s.finish(ctx, "login", gen, res, err)
}

// Signup registers a new account and persists the result.
func (s *SessionService) Signup(ctx context.Context, in domain.SignupInput) (domain.Snapshot, error) {
	gen := s.begin()
	res, err := s.api.Register(ctx, in)
	return s.finish(ctx, "signup", gen, res, err)
}

// Logout erases the persisted session and resets to Anonymous. It never
// calls the remote API.
func (s *SessionService) Logout(ctx context.Context) domain.Snapshot {
	s.writeMu.Lock()
	s.mu.Lock()
	s.gen++
	s.setAnonymousLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.erase(ctx)
	s.writeMu.Unlock()

	s.log.InfoContext(ctx, "logged out")
	s.emit(snap)
	return snap
}

// Invalidate tears the session down after the remote API rejected
// credential. A rejection of a credential other than the current one, or of
// a request that carried none, leaves an authenticated session alone. It
// reports whether an authenticated session was ended.
func (s *SessionService) Invalidate(ctx context.Context, credential string) bool {
	s.writeMu.Lock()
	s.mu.Lock()
	switch s.state {
	case domain.StateHydrating:
		s.mu.Unlock()
		s.writeMu.Unlock()
		return false
	case domain.StateAnonymous:
		s.mu.Unlock()
		s.erase(ctx)
		s.writeMu.Unlock()
		return false
	}
	if credential == "" || s.cred == nil || s.cred.AccessToken != credential {
		s.mu.Unlock()
		s.writeMu.Unlock()
		s.log.DebugContext(ctx, "ignoring rejection of a superseded credential")
		return false
	}
	s.gen++
	s.setAnonymousLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.erase(ctx)
	s.writeMu.Unlock()

	s.log.WarnContext(ctx, "session invalidated")
	s.emit(snap)
	return true
}

// UpdateUser replaces and persists the user of an authenticated session.
func (s *SessionService) UpdateUser(ctx context.Context, user domain.User) (domain.Snapshot, error) {
	s.writeMu.Lock()
	s.mu.Lock()
	if s.state != domain.StateAuthenticated {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.writeMu.Unlock()
		return snap, domain.ErrNoCredential
	}
	u := user
	s.user = &u
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.store.Set(context.WithoutCancel(ctx), domain.KeyUser, user)
	s.writeMu.Unlock()

	s.emit(snap)
	return snap, nil
}

// ReloadUser fetches the current user from the remote API and stores it.
func (s *SessionService) ReloadUser(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	gen := s.gen
	authed := s.state == domain.StateAuthenticated
	s.mu.Unlock()
	if !authed {
		return s.Snapshot(), domain.ErrNoCredential
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("reload user: %w", err)
	}

	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		return s.Snapshot(), domain.ErrSuperseded
	}
	return s.UpdateUser(ctx, *user)
}

// Refresh exchanges the refresh token for a new credential. The old refresh
// token is kept when the response carries none.
func (s *SessionService) Refresh(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	gen := s.gen
	var current domain.Credential
	if s.cred != nil {
		current = *s.cred
	}
	s.mu.Unlock()

	if current.RefreshToken == "" {
		return s.Snapshot(), &domain.Error{Kind: domain.KindAuthentication, Op: "refresh", Err: domain.ErrNoCredential}
	}

	next, err := s.api.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("refresh: %w", err)
	}
	cred := *next
	if cred.RefreshToken == "" {
		cred.RefreshToken = current.RefreshToken
	}
	cred = normalizeCredential(cred)

	s.writeMu.Lock()
	s.mu.Lock()
	if gen != s.gen || s.state != domain.StateAuthenticated {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.writeMu.Unlock()
		return snap, domain.ErrSuperseded
	}
	s.cred = &cred
	snap := s.snapshotLocked()
	s.mu.Unlock()
	pctx := context.WithoutCancel(ctx)
	s.store.Set(pctx, domain.KeyAuthToken, cred.AccessToken)
	s.store.Set(pctx, domain.KeyRefreshToken, cred.RefreshToken)
	s.writeMu.Unlock()

	s.log.InfoContext(ctx, "credential refreshed")
	s.emit(snap)
	return snap, nil
}

// RefreshIfExpiring refreshes when the access token has a known expiry
// within window. It reports whether a refresh was attempted.
func (s *SessionService) RefreshIfExpiring(ctx context.Context, window time.Duration) (bool, error) {
	s.mu.Lock()
	due := s.cred != nil && s.cred.RefreshToken != "" && expiresWithin(*s.cred, s.now(), window)
	s.mu.Unlock()
	if !due {
		return false, nil
	}
	_, err := s.Refresh(ctx)
	return true, err
}

// Token implements oauth2.TokenSource over the current credential.
func (s *SessionService) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, domain.ErrNoCredential
	}
	return oauthToken(*s.cred), nil
}

func (s *SessionService) begin() uint64 {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.pending++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.emit(snap)
	return gen
}

func (s *SessionService) finish(ctx context.Context, op string, gen uint64, res *domain.AuthResult, err error) (domain.Snapshot, error) {
	s.writeMu.Lock()
	s.mu.Lock()
	s.pending--
	current := gen == s.gen
	if err != nil || !current {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.writeMu.Unlock()
		s.emit(snap)
		if err != nil {
			s.log.InfoContext(ctx, op+" failed", logger.Error(err))
			return snap, fmt.Errorf("%s: %w", op, err)
		}
		s.log.InfoContext(ctx, op+" superseded")
		return snap, domain.ErrSuperseded
	}

	user := res.User
	cred := normalizeCredential(res.Credential)
	s.setAuthenticatedLocked(&user, &cred)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	pctx := context.WithoutCancel(ctx)
	s.store.Set(pctx, domain.KeyAuthToken, cred.AccessToken)
	if cred.RefreshToken != "" {
		s.store.Set(pctx, domain.KeyRefreshToken, cred.RefreshToken)
	} else {
		s.store.Remove(pctx, domain.KeyRefreshToken)
	}
	s.store.Set(pctx, domain.KeyUser, user)
	s.writeMu.Unlock()

	s.log.InfoContext(ctx, op+" succeeded", logger.UserID(string(user.ID)))
	s.emit(snap)
	return snap, nil
}

func (s *SessionService) erase(ctx context.Context) {
	pctx := context.WithoutCancel(ctx)
	for _, k := range domain.SessionKeys {
		s.store.Remove(pctx, k)
	}
}

func (s *SessionService) setAuthenticatedLocked(user *domain.User, cred *domain.Credential) {
	s.state = domain.StateAuthenticated
	s.user = user
	s.cred = cred
}

func (s *SessionService) setAnonymousLocked() {
	s.state = domain.StateAnonymous
	s.user = nil
	s.cred = nil
}

func (s *SessionService) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		State:     s.state,
		IsLoading: s.state == domain.StateHydrating || s.pending > 0,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.cred != nil {
		c := *s.cred
		snap.Credential = &c
	}
	snap.IsAuthenticated = snap.User != nil && snap.Credential != nil
	return snap
}

func (s *SessionService) emit(snap domain.Snapshot) {
	s.mu.Lock()
	fns := make([]func(domain.Snapshot), 0, len(s.listeners))
	for _, id := range slices.Sorted(maps.Keys(s.listeners)) {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// IsSuperseded reports whether err means a newer session operation won.
func IsSuperseded(err error) bool {
	return errors.Is(err, domain.ErrSuperseded)
}
