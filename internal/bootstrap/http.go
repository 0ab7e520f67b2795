package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	httpx "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// ErrCh receives a listen failure. Optional.
	ErrCh chan<- error
}

// StartHTTPServer builds the console router and starts serving in the background.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildHTTPHandler(cfg, logger)
	if err != nil {
		return nil, err
	}
	return startServer(logger, handler, cfg.Config.HTTP.Addr, cfg.ErrCh), nil
}

// BuildHTTPHandler wires the services into httpx.RouterServices.
func BuildHTTPHandler(cfg *HTTPServerConfig, logger *slog.Logger) (http.Handler, error) {
	appCfg := cfg.Config
	svcs := cfg.Services

	compression := 0
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		compression = appCfg.HTTP.CompressionLevel
	}

	router, err := httpx.NewRouter(httpx.RouterServices{
		Guard:     svcs.Guard,
		Inspector: svcs.Guard,
		Root:      svcs.Root,
		Auth:      svcs.Auth,
		Dashboard: svcs.Dashboard,
		Sessions: httpx.NewSessions(httpx.SessionConfig{
			Store:  svcs.Store,
			Domain: appCfg.HTTP.CookieDomain,
			Secure: appCfg.HTTP.CookieSecure,
			MaxAge: appCfg.HTTP.SessionCookieMaxAge,
			Logger: logger,
		}),
		SignInLimiter:         svcs.SignInLimiter,
		Readiness:             readinessChecks(cfg.DB, cfg.RedisClient),
		InterceptUnauthorized: appCfg.Backend.InterceptUnauthorized,
		CookieDomain:          appCfg.HTTP.CookieDomain,
		CookieSecure:          appCfg.HTTP.CookieSecure,
		CompressionLevel:      compression,
		IsDev:                 appCfg.IsDev,
		Logger:                logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return router, nil
}

// readinessChecks probes only the connections that are actually in use.
func readinessChecks(db *sql.DB, rdb redis.UniversalClient) map[string]httpx.ReadinessCheck {
	checks := map[string]httpx.ReadinessCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	logger.Info("shutting down HTTP server")
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
