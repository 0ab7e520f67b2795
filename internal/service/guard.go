package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/credential"
	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/metrics"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
)

// GuardOptions configures a Guard.
type GuardOptions struct {
	// Malformed picks the redirect for an undecodable credential on role-gated views.
	// Defaults to MalformedToForbidden.
	Malformed domainauth.MalformedPolicy
	// EnforceExpiry makes the guard clear expired credentials and send the caller to sign-in.
	// Off by default: only the root resolver looks at exp.
	EnforceExpiry bool
	Clock         func() time.Time
	Logger        *slog.Logger
	Metrics       statsd.Sink
}

// Guard decides, per request, whether a protected view may render.
type Guard struct {
	malformed     domainauth.MalformedPolicy
	enforceExpiry bool
	clock         func() time.Time
	logger        *slog.Logger
	metrics       statsd.Sink
}

// NewGuard constructs a Guard.
func NewGuard(opts GuardOptions) *Guard {
	g := &Guard{
		malformed:     opts.Malformed,
		enforceExpiry: opts.EnforceExpiry,
		clock:         opts.Clock,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
	if g.malformed == "" {
		g.malformed = domainauth.MalformedToForbidden
	}
	if g.clock == nil {
		g.clock = time.Now
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Decide is the pure guard decision over an already-read credential.
// present=false (or an empty token) means nothing is held.
func (g *Guard) Decide(req domainauth.ViewRequirement, token string, present bool, returnTo string) domainauth.Decision {
	sess := DeriveSession(token, present, g.clock())

	if sess.State == domainauth.StateNoCredential {
		return domainauth.Decision{Outcome: domainauth.OutcomeSignIn, State: sess.State, ReturnTo: returnTo}
	}
	if g.enforceExpiry && sess.State == domainauth.StateExpiredCredential {
		return domainauth.Decision{
			Outcome:  domainauth.OutcomeSignIn,
			State:    sess.State,
			Claims:   sess.Claims,
			ReturnTo: returnTo,
		}
	}
	if !req.RequiresElevatedRole {
		return domainauth.Decision{Outcome: domainauth.OutcomeRender, State: sess.State, Claims: sess.Claims}
	}
	if sess.State == domainauth.StateMalformedCredential {
		out := domainauth.Decision{Outcome: g.malformed.Outcome(), State: sess.State}
		if out.Outcome == domainauth.OutcomeSignIn {
			out.ReturnTo = returnTo
		}
		return out
	}
	if sess.Claims.UserType.IsElevated() {
		return domainauth.Decision{Outcome: domainauth.OutcomeRender, State: sess.State, Claims: sess.Claims}
	}
	return domainauth.Decision{Outcome: domainauth.OutcomeForbidden, State: sess.State, Claims: sess.Claims}
}

// Check reads the holder and decides. A holder read error is logged and treated as absent.
// The holder is only mutated when expiry enforcement is on and the credential has expired.
func (g *Guard) Check(ctx context.Context, holder TokenHolder, req domainauth.ViewRequirement, returnTo string) domainauth.Decision {
	token, ok := readHolder(ctx, g.logger, holder)
	d := g.Decide(req, token, ok, returnTo)

	if g.enforceExpiry && d.State == domainauth.StateExpiredCredential && d.Outcome == domainauth.OutcomeSignIn {
		d.Cleared = clearHolder(ctx, g.logger, holder)
	}

	g.logger.DebugContext(ctx, "guard decision",
		"outcome", d.Outcome.String(),
		"state", string(d.State),
		"elevated", req.RequiresElevatedRole,
		"cleared", d.Cleared,
	)
	metrics.EmitGuardDecision(g.metrics, metrics.GuardMetric{
		View:    viewTag(req),
		Outcome: d.Outcome.String(),
		State:   string(d.State),
		Cleared: d.Cleared,
	})
	return d
}

// Inspect derives the current session state without making a routing decision.
func (g *Guard) Inspect(ctx context.Context, holder TokenHolder) domainauth.Session {
	token, ok := readHolder(ctx, g.logger, holder)
	return DeriveSession(token, ok, g.clock())
}

// DeriveSession classifies a held credential. It never mutates anything.
func DeriveSession(token string, present bool, now time.Time) domainauth.Session {
	if !present || token == "" {
		return domainauth.Session{State: domainauth.StateNoCredential}
	}
	claims, err := credential.Decode(token)
	if err != nil {
		return domainauth.Session{State: domainauth.StateMalformedCredential}
	}
	if claims.ExpiredAt(now) {
		return domainauth.Session{State: domainauth.StateExpiredCredential, Claims: claims}
	}
	return domainauth.Session{State: domainauth.StateValidCredential, Claims: claims}
}

func readHolder(ctx context.Context, logger *slog.Logger, holder TokenHolder) (string, bool) {
	if holder == nil {
		return "", false
	}
	token, ok, err := holder.Read(ctx)
	if err != nil {
		logger.WarnContext(ctx, "token holder read failed; treating as absent", "error", err)
		return "", false
	}
	return token, ok
}

func clearHolder(ctx context.Context, logger *slog.Logger, holder TokenHolder) bool {
	if err := holder.Clear(ctx); err != nil {
		logger.WarnContext(ctx, "clear expired token", "error", err)
		return false
	}
	return true
}

func viewTag(req domainauth.ViewRequirement) string {
	if req.RequiresElevatedRole {
		return "elevated"
	}
	return "any"
}
