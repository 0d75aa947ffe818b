// Package event is a small synchronous publish/subscribe bus.
//
// Handlers run in the publisher's goroutine in subscription order. Handler
// errors, including recovered panics, are joined and returned to the publisher.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"dreamfront/internal/domain"
	"dreamfront/internal/logger"
)

// Topics published by the gateway.
const (
	TopicNotification       = "notification"
	TopicSessionInvalidated = "session.invalidated"
)

// Event is one published message.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates an event with a fresh ID and timestamp.
func New(topic string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// Failure is the payload of a notification event: a classified request failure.
type Failure struct {
	Kind   domain.Kind `json:"kind"`
	Status int         `json:"status,omitempty"`
	Method string      `json:"method"`
	Path   string      `json:"path"`
	Detail string      `json:"detail,omitempty"`
}

// Invalidation is the payload of a session.invalidated event. Credential is
// the access token the rejected request carried, empty when it carried none.
type Invalidation struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Credential string `json:"-"`
}

// Handler processes one event.
type Handler func(ctx context.Context, e Event) error

// Typed adapts a handler for a single payload type. Events carrying another
// payload type fail with an error.
func Typed[T any](fn func(ctx context.Context, payload T) error) Handler {
	return func(ctx context.Context, e Event) error {
		p, ok := e.Payload.(T)
		if !ok {
			return fmt.Errorf("event %s: unexpected payload %T", e.Topic, e.Payload)
		}
		return fn(ctx, p)
	}
}

type subscription struct {
	id int
	fn Handler
}

// Bus routes events to the handlers subscribed to their topic.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID int
	log    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = logger.Discard()
	}
	return &Bus{subs: make(map[string][]subscription), log: log}
}

// Subscribe registers fn for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic string, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[topic]
			for i, s := range subs {
				if s.id == id {
					b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish runs every handler subscribed to e.Topic.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[e.Topic]...)
	b.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := b.safeHandle(ctx, s.fn, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) safeHandle(ctx context.Context, fn Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.ErrorContext(ctx, "event handler panicked",
				slog.String("event_id", e.ID),
				slog.String("topic", e.Topic),
				slog.Any("panic", r))
			err = fmt.Errorf("handler for %s panicked: %v", e.Topic, r)
		}
	}()
	return fn(ctx, e)
}
