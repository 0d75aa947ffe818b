package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"dreamfront/internal/adapter/authapi"
	"dreamfront/internal/adapter/memory"
	"dreamfront/internal/domain"
	"dreamfront/internal/event"
	"dreamfront/internal/gateway"
)

type lateTokenSource func() (*oauth2.Token, error)

func (f lateTokenSource) Token() (*oauth2.Token, error) { return f() }

// remoteFixture wires the session to a real gateway and controller over a
// fake API. Passwords other than "pw" are rejected with 401 once reject is
// released; /auth/me rejects the token in revoked.
type remoteFixture struct {
	session *SessionService
	db      *memory.DB
	nav     *recordingNavigator
	ctrl    *Controller

	rejecting chan struct{}
	reject    chan struct{}
	meCalled  chan string
	meRelease chan struct{}
	revoked   string
}

func newRemoteFixture(t *testing.T, revoked string) *remoteFixture {
	t.Helper()
	f := &remoteFixture{
		revoked:   revoked,
		nav:       &recordingNavigator{},
		rejecting: make(chan struct{}, 1),
		reject:    make(chan struct{}),
		meCalled:  make(chan string, 1),
		meRelease: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in domain.LoginInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "pw" {
			f.rejecting <- struct{}{}
			<-f.reject
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail": "Incorrect email or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token": "t-`+in.Email+`", "token_type": "bearer",
			"user": {"id": 7, "email": "`+in.Email+`", "username": "dreamer"}}`)
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.meCalled <- token
		<-f.meRelease
		if token == f.revoked {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id": 7, "email": "a@x", "username": "dreamer"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	bus := event.NewBus(nil)
	var session *SessionService
	gw, err := gateway.New(
		gateway.Config{BaseURL: srv.URL + "/api/v1", Timeout: 5 * time.Second},
		gateway.WithTransformers(gateway.BearerAuth(lateTokenSource(func() (*oauth2.Token, error) {
			return session.Token()
		}))),
		gateway.WithPublisher(bus),
	)
	require.NoError(t, err)

	api := authapi.New(gw)
	f.db = memory.New()
	store := NewStore(f.db, nil)
	session = NewSessionService(api, store, nil)
	f.session = session
	f.ctrl = NewController(session, api, store, f.nav, &recordingNotifier{}, nil)
	t.Cleanup(f.ctrl.Register(bus))

	session.Initialize(context.Background())
	return f
}

func TestStaleUnauthorizedLoginKeepsNewerSession(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t, "")

	doneA := make(chan error, 1)
	go func() {
		_, err := f.session.Login(ctx, domain.LoginInput{Email: "a@x", Password: "wrong"})
		doneA <- err
	}()
	<-f.rejecting

	_, err := f.session.Login(ctx, domain.LoginInput{Email: "b@x", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, domain.StateAuthenticated, f.session.Snapshot().State)

	close(f.reject)
	require.ErrorIs(t, <-doneA, domain.ErrAuthentication)

	snap := f.session.Snapshot()
	assert.Equal(t, domain.StateAuthenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, "b@x", snap.User.Email)
	assert.Equal(t, "t-b@x", snap.Credential.AccessToken)
	assert.ElementsMatch(t, []string{"auth_token", "user"}, f.db.Keys())
	assert.Empty(t, f.nav.Paths())
}

func TestUnauthorizedSupersededCredentialKeepsNewerSession(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t, "t-a@x")
	_, err := f.session.Login(ctx, domain.LoginInput{Email: "a@x", Password: "pw"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.session.ReloadUser(ctx)
		done <- err
	}()
	require.Equal(t, "t-a@x", <-f.meCalled)

	_, err = f.session.Login(ctx, domain.LoginInput{Email: "b@x", Password: "pw"})
	require.NoError(t, err)

	close(f.meRelease)
	require.Error(t, <-done)

	snap := f.session.Snapshot()
	assert.Equal(t, domain.StateAuthenticated, snap.State)
	assert.Equal(t, "t-b@x", snap.Credential.AccessToken)
	assert.ElementsMatch(t, []string{"auth_token", "user"}, f.db.Keys())
	assert.Empty(t, f.nav.Paths())
}

func TestUnauthorizedCurrentCredentialConvergesToLogout(t *testing.T) {
	ctx := context.Background()
	f := newRemoteFixture(t, "t-a@x")
	_, err := f.session.Login(ctx, domain.LoginInput{Email: "a@x", Password: "pw"})
	require.NoError(t, err)
	close(f.meRelease)

	_, err = f.session.ReloadUser(ctx)
	require.ErrorIs(t, err, domain.ErrAuthentication)

	snap := f.session.Snapshot()
	assert.Equal(t, domain.StateAnonymous, snap.State)
	assert.False(t, snap.IsAuthenticated)
	assert.False(t, snap.IsLoading)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Credential)
	assert.Empty(t, f.db.Keys())
	assert.Equal(t, []string{domain.RouteLogin}, f.nav.Paths())
}
