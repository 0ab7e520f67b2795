// Package auth contains simple hand-written test doubles for credential ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Backend           = (*StubBackend)(nil)
	_ ports.SignatureVerifier = StaticVerifier{}
)

// TestSigningKey signs tokens minted by Token.
var TestSigningKey = []byte("console-test-signing-key")

// Token mints an HS256 token carrying claims. The signature is real but nothing in the
// console checks it unless a verifier is configured.
func Token(claims map[string]any) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims)).SignedString(TestSigningKey)
	if err != nil {
		panic(fmt.Sprintf("mint test token: %v", err))
	}
	return signed
}

// RoleToken mints a token for userType expiring at exp.
func RoleToken(userType string, exp time.Time) string {
	return Token(map[string]any{"userType": userType, "exp": exp.Unix(), "sub": "user-1", "email": "user@example.com"})
}

// RawPayloadToken wraps an arbitrary payload as the claims segment, unsigned.
func RawPayloadToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

// MemoryHolder is an in-memory token holder with error injection.
type MemoryHolder struct {
	mu    sync.Mutex
	token string
	held  bool

	ReadErr  error
	StoreErr error
	ClearErr error

	Stores int
	Clears int
}

// NewMemoryHolder returns a holder that already holds token when token is non-empty.
func NewMemoryHolder(token string) *MemoryHolder {
	return &MemoryHolder{token: token, held: token != ""}
}

func (h *MemoryHolder) Store(_ context.Context, token string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.StoreErr != nil {
		return h.StoreErr
	}
	h.Stores++
	h.token, h.held = token, true
	return nil
}

func (h *MemoryHolder) Read(_ context.Context) (string, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ReadErr != nil {
		return "", false, h.ReadErr
	}
	if !h.held || h.token == "" {
		return "", false, nil
	}
	return h.token, true, nil
}

func (h *MemoryHolder) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ClearErr != nil {
		return h.ClearErr
	}
	h.Clears++
	h.token, h.held = "", false
	return nil
}

// Held reports the current token without going through Read.
func (h *MemoryHolder) Held() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token, h.held
}

// StubBackend answers backend calls from function fields or canned JSON by path.
type StubBackend struct {
	SignInFunc  func(ctx context.Context, in ports.SignInInput) (string, error)
	GetJSONFunc func(ctx context.Context, token, path string) (json.RawMessage, error)

	// Responses maps a path to a canned body when GetJSONFunc is nil.
	Responses map[string]string

	mu     sync.Mutex
	Tokens []string
}

func (b *StubBackend) SignIn(ctx context.Context, in ports.SignInInput) (string, error) {
	if b.SignInFunc != nil {
		return b.SignInFunc(ctx, in)
	}
	return "", ports.ErrInvalidCredentials
}

func (b *StubBackend) GetJSON(ctx context.Context, token, path string) (json.RawMessage, error) {
	b.mu.Lock()
	b.Tokens = append(b.Tokens, token)
	b.mu.Unlock()

	if b.GetJSONFunc != nil {
		return b.GetJSONFunc(ctx, token, path)
	}
	body, ok := b.Responses[path]
	if !ok {
		return nil, fmt.Errorf("stub backend: no response for %s", path)
	}
	return json.RawMessage(body), nil
}

// StaticVerifier returns Err for every token.
type StaticVerifier struct {
	Err error
}

func (v StaticVerifier) Verify(context.Context, string) error { return v.Err }
