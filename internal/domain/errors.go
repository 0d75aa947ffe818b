package domain

import (
	"errors"
	"strconv"
)

// Kind classifies a failure.
type Kind int

// Failure kinds.
const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Status is the HTTP status when a response
// was received, Detail the server supplied message if any.
type Error struct {
	Kind   Kind
	Status int
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg += " (status " + strconv.Itoa(e.Status) + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Status != 0 || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrServer         = &Error{Kind: KindServer}
	ErrUnknown        = &Error{Kind: KindUnknown}
)

var (
	// ErrNoCredential indicates that no session credential is held.
	ErrNoCredential = errors.New("no credential")
	// ErrSuperseded indicates that a newer session operation replaced this one.
	ErrSuperseded = errors.New("superseded by a newer session operation")
)

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
