package domain

import "context"

// KVBackend is the port for raw persisted values. Implementations are
// scoped to a namespace; Clear removes only that namespace. A missing key
// is reported as found == false with a nil error.
type KVBackend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// AuthAPI is the port for the remote authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Register(ctx context.Context, in SignupInput) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*Credential, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*User, error)
}

// Navigator receives navigation commands.
type Navigator interface {
	Navigate(path string)
}

// Notification is a user-facing message.
type Notification struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"-"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notifier delivers notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
