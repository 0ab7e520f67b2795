package config

import (
	"strings"
	"time"
)

// BackendConfig describes the counselling platform REST API.
type BackendConfig struct {
	// BaseURL is the API origin. Ignored when AUTH_MODE=mock.
	BaseURL    string        `env:"BASE_URL"    envDefault:"http://localhost:5001"`
	SignInPath string        `env:"SIGNIN_PATH" envDefault:"/api/auth/signin"`
	Timeout    time.Duration `env:"TIMEOUT"     envDefault:"10s"`

	// TokenExpr is a JMESPath expression locating the token in the sign-in response.
	TokenExpr string `env:"TOKEN_EXPR"`

	// JWKSURL enables signature verification of tokens issued at sign-in.
	JWKSURL string `env:"JWKS_URL"`

	// InterceptUnauthorized clears the held token and redirects to sign-in whenever the
	// backend answers 401.
	InterceptUnauthorized bool `env:"INTERCEPT_UNAUTHORIZED" envDefault:"true"`

	// DashboardConcurrency bounds parallel widget fetches. Zero means unbounded.
	DashboardConcurrency int `env:"DASHBOARD_CONCURRENCY" envDefault:"4"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	b.JWKSURL = strings.TrimSpace(b.JWKSURL)
	if b.Timeout <= 0 {
		b.Timeout = 10 * time.Second
	}
	if b.DashboardConcurrency < 0 {
		b.DashboardConcurrency = 0
	}
	if b.SignInPath == "" {
		b.SignInPath = "/api/auth/signin"
	}
}
