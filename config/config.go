package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sign-in mode, dev backend, and guard policy
//   - backend.go: the counselling platform API
//   - database.go: token store, Postgres, and Redis configuration
//   - http.go: HTTP server and cookie configuration
//   - services.go: service mode and token reaper configuration
//   - observability.go: logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, insecure cookies).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth    AuthConfig
	Backend BackendConfig `envPrefix:"BACKEND_"`

	TokenStore TokenStoreConfig `envPrefix:"TOKEN_STORE_"`
	Postgres   DBConfig         `envPrefix:"DB_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	// Services is a comma-separated list of service modes to run.
	Services string `env:"SERVICES" envDefault:"http"`

	Reaper ReaperConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.Auth.Sanitize()
	c.Backend.Sanitize()
	c.TokenStore.Sanitize()
	c.HTTP.Sanitize(c.IsDev)
	c.Reaper.Sanitize()
	c.Observability.Sanitize()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsTokenReaperEnabled returns true if the idle token reaper should run.
// It only applies to the Postgres token store.
func (c *AppConfig) IsTokenReaperEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeTokenReaper] && c.TokenStore.Kind == TokenStorePostgres
}

// NeedsPostgres reports whether any enabled component needs a database connection.
func (c *AppConfig) NeedsPostgres() bool {
	return c.TokenStore.Kind == TokenStorePostgres
}

// NeedsRedis reports whether any enabled component needs a Redis connection.
func (c *AppConfig) NeedsRedis() bool {
	return c.TokenStore.Kind == TokenStoreRedis
}
