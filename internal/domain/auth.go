// Package domain contains the core session entities, the error taxonomy and
// the ports implemented by adapters.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Key names a persisted value.
type Key string

// Persisted keys. Theme and Language are preferences outside the session.
const (
	KeyAuthToken    Key = "auth_token"
	KeyRefreshToken Key = "refresh_token"
	KeyUser         Key = "user"
	KeyTheme        Key = "theme"
	KeyLanguage     Key = "language"
)

// SessionKeys are the keys erased when a session ends.
var SessionKeys = []Key{KeyAuthToken, KeyRefreshToken, KeyUser}

// Navigation targets.
const (
	RouteLogin   = "/login"
	RouteLanding = "/journal"
)

// UserID is a user identifier. The backend emits integers, the client
// stores strings; both decode.
type UserID string

// UnmarshalJSON accepts a JSON string or number.
func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// Timestamp is a time.Time that also decodes naive ISO-8601 datetimes
// (no zone), which are read as UTC.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// UnmarshalJSON accepts null, an empty string or a datetime string.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) == 0 || b[0] != '"' {
		return fmt.Errorf("timestamp: expected a string, got %s", b)
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	for _, layout := range naiveLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognised format", s)
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// User is the authenticated account as the API describes it.
type User struct {
	ID         UserID    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  Timestamp `json:"created_at"`
	UpdatedAt  Timestamp `json:"updated_at"`
}

// Credential is the token pair that authorizes outbound requests.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"-"`
}

// State is the session state machine position.
type State int

// Session states.
const (
	StateHydrating State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State           State       `json:"state"`
	User            *User       `json:"user"`
	Credential      *Credential `json:"-"`
	IsAuthenticated bool        `json:"is_authenticated"`
	IsLoading       bool        `json:"is_loading"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupInput carries registration data.
type SignupInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// AuthResult is what login and registration return.
type AuthResult struct {
	User       User
	Credential Credential
}
