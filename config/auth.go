package config

import (
	"fmt"
	"strings"
	"time"

	domainauth "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/domain/auth"
)

// AuthMode represents where sign-in requests are sent.
type AuthMode string

const (
	// AuthModeBackend signs in against the configured platform API.
	AuthModeBackend AuthMode = "backend"
	// AuthModeMock serves an in-process dev backend (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "backend", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: backend, mock)", v)
	}
}

// DevBackendConfig controls the in-process dev backend used when AUTH_MODE=mock.
type DevBackendConfig struct {
	// SigningKey signs dev tokens. A random key is generated per process when empty.
	SigningKey string        `env:"SIGNING_KEY"`
	TokenTTL   time.Duration `env:"TOKEN_TTL"   envDefault:"8h"`
	// Users lists dev accounts as email:password:userType, separated by ';'.
	// The built-in accounts are used when empty.
	Users []string `env:"USERS" envSeparator:";"`
}

// DevUser is one parsed DEV_BACKEND_USERS entry.
type DevUser struct {
	Email    string
	Password string
	UserType string
}

// ParsedUsers splits Users into accounts. userType may contain spaces ("Management Team").
func (c DevBackendConfig) ParsedUsers() ([]DevUser, error) {
	out := make([]DevUser, 0, len(c.Users))
	for _, entry := range c.Users {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid dev user %q (want email:password:userType)", entry)
		}
		out = append(out, DevUser{Email: parts[0], Password: parts[1], UserType: parts[2]})
	}
	return out, nil
}

// GuardConfig controls route guard and root resolver policy.
type GuardConfig struct {
	// Malformed picks the redirect for an undecodable credential on role-gated views.
	Malformed domainauth.MalformedPolicy `env:"GUARD_MALFORMED_POLICY" envDefault:"forbidden"`
	// RootMalformed picks the redirect for an undecodable credential at "/".
	RootMalformed domainauth.MalformedPolicy `env:"ROOT_MALFORMED_POLICY" envDefault:"sign-in"`
	// EnforceExpiry makes every guarded view clear an expired credential and send the
	// caller to sign-in. When false only "/" looks at exp.
	EnforceExpiry bool `env:"GUARD_ENFORCE_EXPIRY" envDefault:"false"`
}

// SignInLimitConfig bounds sign-in attempts per client address.
type SignInLimitConfig struct {
	// PerMinute is the sustained rate. Zero disables limiting.
	PerMinute float64 `env:"SIGNIN_RATE_PER_MINUTE" envDefault:"10"`
	Burst     int     `env:"SIGNIN_RATE_BURST"      envDefault:"5"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines where sign-in requests go.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"backend"`

	// DevBackend configuration (used when Mode=mock).
	DevBackend DevBackendConfig `envPrefix:"DEV_BACKEND_"`

	Guard       GuardConfig
	SignInLimit SignInLimitConfig
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.DevBackend.TokenTTL <= 0 {
		a.DevBackend.TokenTTL = 8 * time.Hour
	}
	if a.SignInLimit.PerMinute < 0 {
		a.SignInLimit.PerMinute = 0
	}
	if a.SignInLimit.Burst < 1 {
		a.SignInLimit.Burst = 1
	}
}
