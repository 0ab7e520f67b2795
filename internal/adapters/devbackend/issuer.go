// Package devbackend is an in-process stand-in for the counselling platform API, used
// for local development and tests. It issues real JWTs and serves canned dashboard data.
package devbackend

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a dev account accepted by the sign-in endpoint.
type User struct {
	Subject  string
	Email    string
	Password string
	UserType string
}

// DefaultUsers returns one account per interesting role.
func DefaultUsers() []User {
	return []User{
		{Subject: "dev-admin", Email: "admin@sona.dev", Password: "admin", UserType: "Admin"},
		{Subject: "dev-mt", Email: "mt@sona.dev", Password: "mt", UserType: "MT"},
		{Subject: "dev-client", Email: "client@sona.dev", Password: "client", UserType: "Client"},
	}
}

// Config controls token issuance.
type Config struct {
	// SigningKey signs HS256 tokens. A random key is generated when empty.
	SigningKey []byte
	// RSAKey switches issuance to RS256 and publishes the public half as a JWKS.
	RSAKey   *rsa.PrivateKey
	KeyID    string
	Users    []User
	TokenTTL time.Duration // default 8h when zero
	Issuer   string
	Clock    func() time.Time
}

type tokenClaims struct {
	UserType string `json:"userType"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and validates dev tokens.
type Issuer struct {
	hmacKey []byte
	rsaKey  *rsa.PrivateKey
	keyID   string
	users   map[string]User
	ttl     time.Duration
	issuer  string
	clock   func() time.Time
}

// NewIssuer validates cfg and builds an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	users := cfg.Users
	if len(users) == 0 {
		users = DefaultUsers()
	}
	byEmail := make(map[string]User, len(users))
	for _, u := range users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" || u.Password == "" {
			return nil, errors.New("dev backend: every user needs an email and password")
		}
		if u.Subject == "" {
			u.Subject = email
		}
		byEmail[email] = u
	}

	key := cfg.SigningKey
	if len(key) == 0 && cfg.RSAKey == nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}

	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	keyID := cfg.KeyID
	if keyID == "" {
		keyID = "dev-1"
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "sona-dev-backend"
	}

	return &Issuer{
		hmacKey: key,
		rsaKey:  cfg.RSAKey,
		keyID:   keyID,
		users:   byEmail,
		ttl:     ttl,
		issuer:  issuer,
		clock:   clock,
	}, nil
}

// Authenticate returns the user for email/password.
func (i *Issuer) Authenticate(email, password string) (User, bool) {
	u, ok := i.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.Password != password {
		return User{}, false
	}
	return u, true
}

// Issue mints a token for u expiring after the configured TTL.
func (i *Issuer) Issue(u User) (string, error) {
	return i.IssueUntil(u, i.clock().Add(i.ttl))
}

// IssueUntil mints a token for u with an explicit expiry.
func (i *Issuer) IssueUntil(u User, exp time.Time) (string, error) {
	now := i.clock()
	claims := tokenClaims{
		UserType: u.UserType,
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	if i.rsaKey != nil {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		tok.Header["kid"] = i.keyID
		signed, err := tok.SignedString(i.rsaKey)
		if err != nil {
			return "", fmt.Errorf("sign token: %w", err)
		}
		return signed, nil
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.hmacKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the caller.
func (i *Issuer) Validate(raw string) (User, error) {
	method := jwt.SigningMethodHS256.Alg()
	if i.rsaKey != nil {
		method = jwt.SigningMethodRS256.Alg()
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		if i.rsaKey != nil {
			return &i.rsaKey.PublicKey, nil
		}
		return i.hmacKey, nil
	},
		jwt.WithValidMethods([]string{method}),
		jwt.WithTimeFunc(i.clock),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.issuer),
	)
	if err != nil {
		return User{}, err
	}
	return User{Subject: claims.Subject, Email: claims.Email, UserType: claims.UserType}, nil
}

// JWK is the public signing key in JSON Web Key form.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS returns the published key set. It is empty for HS256 issuers.
func (i *Issuer) JWKS() []JWK {
	if i.rsaKey == nil {
		return []JWK{}
	}
	pub := i.rsaKey.PublicKey
	return []JWK{{
		Kty: "RSA",
		Kid: i.keyID,
		Use: "sig",
		Alg: jwt.SigningMethodRS256.Alg(),
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}
}
