// Package guard decides whether gated content may be shown for a session state.
package guard

import "dreamfront/internal/domain"

// Capability is the requirement a route or command places on the session.
type Capability int

// Capabilities.
const (
	Public Capability = iota
	RequiresAuth
	RequiresAnon
)

func (c Capability) String() string {
	switch c {
	case RequiresAuth:
		return "requires_auth"
	case RequiresAnon:
		return "requires_anon"
	default:
		return "public"
	}
}

// Action is what the caller should do.
type Action int

// Actions.
const (
	Render Action = iota
	Loading
	Redirect
)

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

// Outcome is the decision for one evaluation. Target is set for Redirect.
type Outcome struct {
	Action Action
	Target string
}

// Evaluate decides the outcome for capability c in state s.
func Evaluate(s domain.State, c Capability) Outcome {
	switch c {
	case RequiresAuth:
		switch s {
		case domain.StateAuthenticated:
			return Outcome{Action: Render}
		case domain.StateAnonymous:
			return Outcome{Action: Redirect, Target: domain.RouteLogin}
		default:
			return Outcome{Action: Loading}
		}
	case RequiresAnon:
		switch s {
		case domain.StateAnonymous:
			return Outcome{Action: Render}
		case domain.StateAuthenticated:
			return Outcome{Action: Redirect, Target: domain.RouteLanding}
		default:
			return Outcome{Action: Loading}
		}
	default:
		return Outcome{Action: Render}
	}
}
