package ports

// Package ports defines interfaces (hexagonal ports) for credential storage and the
// counselling backend. Implementations live in internal/adapters and internal/data;
// orchestration in internal/service.

import (
	"context"
	"encoding/json"
	"errors"
)

// TokenKey is the fixed key the bearer credential is stored under within a browser session.
const TokenKey = "token"

// ErrTokenNotFound is returned by stores when no credential is held for a session.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore persists one bearer credential per browser session.
// Stores never inspect or expire the token; expiry is derived from its claims on read.
type TokenStore interface {
	Save(ctx context.Context, sessionID, token string) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// ErrBackendUnauthorized is returned when the backend rejects the attached credential (401).
var ErrBackendUnauthorized = errors.New("backend rejected credential")

// ErrInvalidCredentials is returned when sign-in is refused for the supplied email/password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// SignInInput carries the sign-in form values.
type SignInInput struct {
	Email    string
	Password string
}

// Backend is the counselling platform REST API as the console consumes it.
type Backend interface {
	// SignIn exchanges credentials for a bearer token.
	SignIn(ctx context.Context, in SignInInput) (string, error)

	// GetJSON issues an authenticated GET and returns the raw JSON body.
	GetJSON(ctx context.Context, token, path string) (json.RawMessage, error)
}

// SignatureVerifier checks a token's signature against the issuer's published keys.
type SignatureVerifier interface {
	Verify(ctx context.Context, token string) error
}

// TokenPurger removes credentials that have not been written or read for a while.
type TokenPurger interface {
	PurgeIdle(ctx context.Context, idleSeconds int64) (int64, error)
}
