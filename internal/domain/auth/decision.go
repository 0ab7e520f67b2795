package auth

import (
	"fmt"
	"strings"
)

// Outcome is the navigable result of a guard evaluation.
type Outcome int

const (
	// OutcomeRender lets the requested view render unchanged.
	OutcomeRender Outcome = iota
	// OutcomeSignIn redirects to the sign-in view.
	OutcomeSignIn
	// OutcomeForbidden redirects to the forbidden view.
	OutcomeForbidden
	// OutcomeDashboard redirects to the authenticated landing view. Root resolver only.
	OutcomeDashboard
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeSignIn:
		return "sign_in"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is what a guard hands back to the transport layer.
// ReturnTo is only set for OutcomeSignIn from the route guard.
type Decision struct {
	Outcome  Outcome
	State    SessionState
	Claims   Claims
	ReturnTo string
	// Cleared is true when the evaluation removed the stored credential.
	Cleared bool
}

// ViewRequirement is what a protected view declares about itself.
type ViewRequirement struct {
	RequiresElevatedRole bool
}

// ElevatedView is the default requirement for protected views.
func ElevatedView() ViewRequirement { return ViewRequirement{RequiresElevatedRole: true} }

// AnyCredentialView admits any present credential.
func AnyCredentialView() ViewRequirement { return ViewRequirement{RequiresElevatedRole: false} }

// MalformedPolicy picks where an undecodable credential is sent.
type MalformedPolicy string

const (
	MalformedToSignIn    MalformedPolicy = "sign-in"
	MalformedToForbidden MalformedPolicy = "forbidden"
)

// UnmarshalText implements encoding.TextUnmarshaler for MalformedPolicy.
func (p *MalformedPolicy) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "sign-in", "signin":
		*p = MalformedToSignIn
		return nil
	case "forbidden":
		*p = MalformedToForbidden
		return nil
	default:
		return fmt.Errorf("invalid MalformedPolicy: %q (valid options: sign-in, forbidden)", v)
	}
}

// Outcome maps the policy to the redirect it produces.
func (p MalformedPolicy) Outcome() Outcome {
	if p == MalformedToSignIn {
		return OutcomeSignIn
	}
	return OutcomeForbidden
}
