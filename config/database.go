package config

import (
	"fmt"
	"strings"
	"time"
)

// TokenStoreKind selects where held credentials live.
type TokenStoreKind string

const (
	// TokenStoreMemory keeps tokens in process memory (single instance, dev).
	TokenStoreMemory TokenStoreKind = "memory"
	// TokenStoreRedis keeps tokens in Redis.
	TokenStoreRedis TokenStoreKind = "redis"
	// TokenStorePostgres keeps tokens in the console_tokens table.
	TokenStorePostgres TokenStoreKind = "postgres"
	// TokenStoreCookie keeps the token itself in an HttpOnly cookie.
	TokenStoreCookie TokenStoreKind = "cookie"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenStoreKind.
func (k *TokenStoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch TokenStoreKind(v) {
	case TokenStoreMemory, TokenStoreRedis, TokenStorePostgres, TokenStoreCookie:
		*k = TokenStoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenStoreKind: %q (valid options: memory, redis, postgres, cookie)", v)
	}
}

// TokenStoreConfig selects and tunes the token store.
type TokenStoreConfig struct {
	Kind TokenStoreKind `env:"KIND" envDefault:"memory"`
	// IdleTTL bounds how long Redis keeps an untouched token. Zero keeps it until cleared.
	IdleTTL     time.Duration `env:"IDLE_TTL"     envDefault:"0s"`
	RedisPrefix string        `env:"REDIS_PREFIX" envDefault:"console:"`
}

// Sanitize applies guardrails to token store configuration values.
func (t *TokenStoreConfig) Sanitize() {
	if t.Kind == "" {
		t.Kind = TokenStoreMemory
	}
	if t.IdleTTL < 0 {
		t.IdleTTL = 0
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"console"`
	Password string `env:"PASSWORD"                envDefault:"console"`
	Name     string `env:"NAME"                    envDefault:"console"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
