package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/memory"
	redisadapter "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/redis"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/data"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

// TokenStoreDeps carries whatever connections the configured store kind needs.
type TokenStoreDeps struct {
	Config      config.TokenStoreConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildTokenStore returns the server-side store for TOKEN_STORE_KIND. The cookie kind
// keeps nothing server-side and yields a nil store.
//
//nolint:ireturn // the store kind is chosen at runtime.
func BuildTokenStore(deps TokenStoreDeps) (ports.TokenStore, error) {
	kind := deps.Config.Kind
	if kind == "" {
		kind = config.TokenStoreMemory
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch kind {
	case config.TokenStoreMemory:
		logger.Info("token store: process memory (single instance only)")
		return memory.NewTokenStore(), nil
	case config.TokenStoreRedis:
		if deps.RedisClient == nil {
			return nil, errors.New("redis token store requires a redis client")
		}
		logger.Info("token store: redis", "prefix", deps.Config.RedisPrefix, "idle_ttl", deps.Config.IdleTTL)
		return redisadapter.NewTokenStore(deps.RedisClient, redisadapter.TokenStoreOptions{
			Prefix:  deps.Config.RedisPrefix,
			IdleTTL: deps.Config.IdleTTL,
		}), nil
	case config.TokenStorePostgres:
		if deps.DB == nil {
			return nil, errors.New("postgres token store requires a database connection")
		}
		logger.Info("token store: postgres")
		return data.NewTokenRepo(deps.DB), nil
	case config.TokenStoreCookie:
		logger.Info("token store: HttpOnly cookie")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown token store kind %q", kind)
	}
}
