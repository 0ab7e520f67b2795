package httpx

import (
	"context"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

// Unexported context key types to avoid collisions across packages.
type (
	sessionKey struct{}
	holderKey  struct{}
)

// SetSessionInContext returns a child context carrying the session the guard admitted.
func SetSessionInContext(ctx context.Context, session domainauth.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSessionFromContext returns the admitted session and whether one was set.
func GetSessionFromContext(ctx context.Context) (domainauth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domainauth.Session)
	return s, ok
}

// SetHolderInContext attaches the request's token holder.
func SetHolderInContext(ctx context.Context, h service.TokenHolder) context.Context {
	if h == nil {
		return ctx
	}
	return context.WithValue(ctx, holderKey{}, h)
}

// HolderFromContext returns the request's token holder, or nil when the session
// middleware did not run.
func HolderFromContext(ctx context.Context) service.TokenHolder {
	h, _ := ctx.Value(holderKey{}).(service.TokenHolder)
	return h
}
