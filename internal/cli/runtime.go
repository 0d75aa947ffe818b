package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/oauth2"

	"dreamfront/internal/adapter/authapi"
	"dreamfront/internal/adapter/bolt"
	"dreamfront/internal/adapter/memory"
	"dreamfront/internal/adapter/postgres"
	"dreamfront/internal/adapter/redis"
	"dreamfront/internal/adapter/sealed"
	"dreamfront/internal/adapter/sqlite"
	"dreamfront/internal/app"
	"dreamfront/internal/config"
	"dreamfront/internal/domain"
	"dreamfront/internal/event"
	"dreamfront/internal/gateway"
	"dreamfront/internal/logger"
)

// Options customise how the root command builds its runtime. Zero values
// select the production behavior.
type Options struct {
	// LoadConfig replaces config.Load.
	LoadConfig func() (config.Config, error)
	// Backend replaces the configured store backend.
	Backend domain.KVBackend
}

// runtime is the object graph shared by the commands of one invocation.
type runtime struct {
	cfg     config.Config
	log     *slog.Logger
	bus     *event.Bus
	store   *app.Store
	gw      *gateway.Gateway
	api     *authapi.Client
	session *app.SessionService
	closers []io.Closer
}

// tokenFunc adapts a function to oauth2.TokenSource.
type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

// newRuntime wires the application. The caller builds the controller, since
// its notifier and navigator depend on the surface.
func newRuntime(ctx context.Context, cfg config.Config, log *slog.Logger, backend domain.KVBackend) (*runtime, error) {
	if log == nil {
		log = logger.Discard()
	}
	r := &runtime{cfg: cfg, log: log}

	if backend == nil {
		b, closer, err := openBackend(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			r.closers = append(r.closers, closer)
		}
		backend = b
	}
	if cfg.Store.Secret != "" {
		sb, err := sealed.Wrap(backend, []byte(cfg.Store.Secret))
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("seal store: %w", err)
		}
		backend = sb
	}

	r.bus = event.NewBus(log.With(logger.Component("bus")))
	r.store = app.NewStore(backend, log)

	// The gateway needs the session's credential and the session needs the
	// gateway's client; the token source resolves the session late.
	gw, err := gateway.New(
		gateway.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout, ContentType: cfg.API.ContentType},
		gateway.WithTransformers(gateway.BearerAuth(tokenFunc(func() (*oauth2.Token, error) {
			return r.session.Token()
		}))),
		gateway.WithPublisher(r.bus),
		gateway.WithLogger(log),
	)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("gateway: %w", err)
	}
	r.gw = gw
	r.api = authapi.New(gw)
	r.session = app.NewSessionService(r.api, r.store, log)
	return r, nil
}

// controller builds and registers a controller delivering to nav and notifier.
func (r *runtime) controller(nav domain.Navigator, notifier domain.Notifier) (*app.Controller, func()) {
	ctrl := app.NewController(r.session, r.api, r.store, nav, notifier, r.log)
	return ctrl, ctrl.Register(r.bus)
}

// openBackend opens the configured store. closer is nil when the backend
// holds no resources.
func openBackend(ctx context.Context, cfg config.Store) (domain.KVBackend, io.Closer, error) {
	switch cfg.Backend {
	case config.StoreBolt:
		s, err := bolt.Open(cfg.Path, cfg.Namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		return s, s, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.Path, cfg.Namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, s, nil
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return postgres.NewKVRepo(db, cfg.Namespace), db, nil
	case config.StoreRedis:
		s, err := redis.Open(ctx, cfg.RedisURL, cfg.Namespace)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return s, s, nil
	case config.StoreMemory:
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
