// Package memory provides a process-local token store for development and single-instance deployments.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps one credential per session id in a map.
// It is safe for concurrent use. Tokens are lost on restart.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewTokenStore creates an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]string)}
}

func (s *TokenStore) Save(_ context.Context, sessionID, token string) error {
	if sessionID == "" {
		return errors.New("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	return nil
}

func (s *TokenStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[sessionID]
	if !ok {
		return "", ports.ErrTokenNotFound
	}
	return tok, nil
}

func (s *TokenStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}

// Len reports how many sessions currently hold a token.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
