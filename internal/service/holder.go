package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

// TokenHolder is the single point of read, write, and clear for one bearer credential.
// Read reports ok=false when nothing (or an empty string) is held.
type TokenHolder interface {
	Store(ctx context.Context, token string) error
	Read(ctx context.Context) (token string, ok bool, err error)
	Clear(ctx context.Context) error
}

// StoreHolder binds a browser session id to a TokenStore.
type StoreHolder struct {
	store     ports.TokenStore
	sessionID string
}

var _ TokenHolder = (*StoreHolder)(nil)

// NewStoreHolder returns a holder for sessionID backed by store.
func NewStoreHolder(store ports.TokenStore, sessionID string) *StoreHolder {
	return &StoreHolder{store: store, sessionID: sessionID}
}

// SessionID returns the browser session the holder is bound to.
func (h *StoreHolder) SessionID() string { return h.sessionID }

// Store overwrites any previously held credential.
func (h *StoreHolder) Store(ctx context.Context, token string) error {
	if h.sessionID == "" {
		return errors.New("session id is required")
	}
	if err := h.store.Save(ctx, h.sessionID, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Read returns the held credential.
func (h *StoreHolder) Read(ctx context.Context) (string, bool, error) {
	if h.sessionID == "" {
		return "", false, nil
	}
	token, err := h.store.Get(ctx, h.sessionID)
	if errors.Is(err, ports.ErrTokenNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Clear removes the held credential. Clearing an empty holder is not an error.
func (h *StoreHolder) Clear(ctx context.Context) error {
	if h.sessionID == "" {
		return nil
	}
	if err := h.store.Delete(ctx, h.sessionID); err != nil && !errors.Is(err, ports.ErrTokenNotFound) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
