// Package oidc verifies backend-issued token signatures against a published JWKS.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

var _ ports.SignatureVerifier = (*KeySetVerifier)(nil)

// KeySetConfig holds configuration for the key set verifier.
type KeySetConfig struct {
	JWKSURL    string
	HTTPClient *http.Client // Optional, defaults to a 30s client
}

// KeySetVerifier checks signatures with keys fetched (and cached) from a JWKS endpoint.
// It does not look at claims; expiry and role stay with the guard.
type KeySetVerifier struct {
	keys *gooidc.RemoteKeySet
}

// NewKeySetVerifier validates cfg and builds a verifier. Keys are fetched lazily.
func NewKeySetVerifier(cfg KeySetConfig) (*KeySetVerifier, error) {
	raw := strings.TrimSpace(cfg.JWKSURL)
	if raw == "" {
		return nil, errors.New("JWKS URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("invalid JWKS URL %q", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := gooidc.ClientContext(context.Background(), httpClient)
	return &KeySetVerifier{keys: gooidc.NewRemoteKeySet(ctx, raw)}, nil
}

// Verify returns nil when token carries a valid signature from a published key.
func (v *KeySetVerifier) Verify(ctx context.Context, token string) error {
	if _, err := v.keys.VerifySignature(ctx, token); err != nil {
		return fmt.Errorf("verify token signature: %w", err)
	}
	return nil
}
