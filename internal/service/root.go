package service

import (
	"context"
	"log/slog"
	"time"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/metrics"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
)

// RootResolverOptions configures a RootResolver.
type RootResolverOptions struct {
	// Malformed defaults to MalformedToSignIn.
	Malformed domainauth.MalformedPolicy
	Clock     func() time.Time
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// RootResolver routes the landing path to sign-in or the dashboard.
// It checks presence and expiry only; role is left to the guarded views.
type RootResolver struct {
	malformed domainauth.MalformedPolicy
	clock     func() time.Time
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewRootResolver constructs a RootResolver.
func NewRootResolver(opts RootResolverOptions) *RootResolver {
	r := &RootResolver{
		malformed: opts.Malformed,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	if r.malformed == "" {
		r.malformed = domainauth.MalformedToSignIn
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Decide is the pure root decision. An expired credential yields OutcomeSignIn with
// StateExpiredCredential; Resolve is responsible for clearing it.
func (r *RootResolver) Decide(token string, present bool) domainauth.Decision {
	sess := DeriveSession(token, present, r.clock())
	switch sess.State {
	case domainauth.StateNoCredential, domainauth.StateExpiredCredential:
		return domainauth.Decision{Outcome: domainauth.OutcomeSignIn, State: sess.State, Claims: sess.Claims}
	case domainauth.StateMalformedCredential:
		return domainauth.Decision{Outcome: r.malformed.Outcome(), State: sess.State}
	default:
		return domainauth.Decision{Outcome: domainauth.OutcomeDashboard, State: sess.State, Claims: sess.Claims}
	}
}

// Resolve reads the holder, clears an expired credential, and returns the redirect.
// It never yields OutcomeRender.
func (r *RootResolver) Resolve(ctx context.Context, holder TokenHolder) domainauth.Decision {
	token, ok := readHolder(ctx, r.logger, holder)
	d := r.Decide(token, ok)
	if d.State == domainauth.StateExpiredCredential {
		d.Cleared = clearHolder(ctx, r.logger, holder)
	}

	r.logger.DebugContext(ctx, "root decision",
		"outcome", d.Outcome.String(),
		"state", string(d.State),
		"cleared", d.Cleared,
	)
	metrics.EmitGuardDecision(r.metrics, metrics.GuardMetric{
		View:    "root",
		Outcome: d.Outcome.String(),
		State:   string(d.State),
		Cleared: d.Cleared,
	})
	return d
}
