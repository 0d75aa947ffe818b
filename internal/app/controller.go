package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"dreamfront/internal/domain"
	"dreamfront/internal/event"
	"dreamfront/internal/gateway"
	"dreamfront/internal/logger"
)

// Subscriber is the part of the event bus the controller needs.
type Subscriber interface {
	Subscribe(topic string, fn event.Handler) (unsubscribe func())
}

// Controller reacts to gateway events: it tears the session down on
// rejected credentials and turns failures into localized notifications.
type Controller struct {
	session  *SessionService
	api      domain.AuthAPI
	store    *Store
	nav      domain.Navigator
	notifier domain.Notifier
	messages *Messages
	log      *slog.Logger
}

// NewController wires a controller.
func NewController(session *SessionService, api domain.AuthAPI, store *Store, nav domain.Navigator, notifier domain.Notifier, log *slog.Logger) *Controller {
	if log == nil {
		log = logger.Discard()
	}
	return &Controller{
		session:  session,
		api:      api,
		store:    store,
		nav:      nav,
		notifier: notifier,
		messages: NewMessages(),
		log:      log.With(logger.Component("controller")),
	}
}

// Register subscribes the controller to bus and returns a function that
// removes both subscriptions.
func (c *Controller) Register(bus Subscriber) (unregister func()) {
	offInvalid := bus.Subscribe(event.TopicSessionInvalidated, event.Typed(c.onInvalidated))
	offNotify := bus.Subscribe(event.TopicNotification, event.Typed(c.onFailure))
	return func() {
		offInvalid()
		offNotify()
	}
}

func (c *Controller) onInvalidated(ctx context.Context, p event.Invalidation) error {
	if !c.session.Invalidate(ctx, p.Credential) {
		return nil
	}
	c.log.InfoContext(ctx, "navigating to login", logger.Method(p.Method), logger.Path(p.Path))
	c.nav.Navigate(domain.RouteLogin)
	return nil
}

func (c *Controller) onFailure(ctx context.Context, f event.Failure) error {
	lang := GetOr(ctx, c.store, domain.KeyLanguage, "")
	c.notifier.Notify(ctx, domain.Notification{
		ID:      uuid.NewString(),
		Kind:    f.Kind,
		Level:   "error",
		Message: c.messages.Failure(lang, f.Kind),
	})
	return nil
}

// SignOut tells the remote API the session is over, ignoring any failure,
// and then logs out locally.
func (c *Controller) SignOut(ctx context.Context) domain.Snapshot {
	if c.session.Snapshot().IsAuthenticated {
		if err := c.api.Logout(gateway.Quiet(ctx)); err != nil {
			c.log.DebugContext(ctx, "remote logout failed", logger.Error(err))
		}
	}
	return c.session.Logout(ctx)
}

// Preferences are the stored presentation settings.
type Preferences struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// Preferences reads the stored preferences.
func (c *Controller) Preferences(ctx context.Context) Preferences {
	return Preferences{
		Theme:    GetOr(ctx, c.store, domain.KeyTheme, ""),
		Language: GetOr(ctx, c.store, domain.KeyLanguage, ""),
	}
}

// SetPreferences stores the non-empty fields of p. An unsupported language
// is a validation error.
func (c *Controller) SetPreferences(ctx context.Context, p Preferences) (Preferences, error) {
	if p.Language != "" {
		lang, ok := c.messages.Supported(p.Language)
		if !ok {
			return c.Preferences(ctx), &domain.Error{Kind: domain.KindValidation, Op: "preferences", Detail: "unsupported language " + p.Language}
		}
		c.store.Set(ctx, domain.KeyLanguage, lang)
	}
	if p.Theme != "" {
		c.store.Set(ctx, domain.KeyTheme, p.Theme)
	}
	return c.Preferences(ctx), nil
}
