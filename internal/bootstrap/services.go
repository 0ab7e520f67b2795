package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/adapters/reaper"
	httpx "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/http"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

// ServiceContainer holds the console's wired services.
type ServiceContainer struct {
	Guard     *service.Guard
	Root      *service.RootResolver
	Auth      *service.AuthService
	Dashboard *service.DashboardService
	// Store is nil in cookie mode.
	Store         ports.TokenStore
	SignInLimiter *httpx.RateLimiter
	Backend       *BackendBundle
	Metrics       statsd.Sink
}

// ServiceDeps contains dependencies for building services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildMetricsSink dials StatsD when enabled. Failures only disable metrics.
//
//nolint:ireturn // a nil Sink means metrics are off.
func buildMetricsSink(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) statsd.Sink {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"service": "console"},
	})
	if err != nil {
		logger.Warn("metrics disabled: statsd client failed", "error", err)
		return nil
	}
	if client == nil {
		return nil
	}
	logger.Info("statsd metrics enabled", "address", cfg.StatsdAddress, "prefix", cfg.Prefix)
	return client
}

// NewServices wires the guard, resolver, auth and dashboard services over the configured
// token store and backend.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps and config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sink := buildMetricsSink(cfg.Observability.Metrics, logger)

	store, err := BuildTokenStore(TokenStoreDeps{
		Config:      cfg.TokenStore,
		DB:          deps.DB,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	bundle, err := BuildBackend(BackendDeps{Config: cfg, Metrics: sink, Logger: logger})
	if err != nil {
		return ServiceContainer{}, err
	}

	dashboard, err := service.NewDashboardService(service.DashboardServiceOptions{
		Backend:     bundle.Client,
		Concurrency: cfg.Backend.DashboardConcurrency,
		Logger:      logger,
		Metrics:     sink,
	})
	if err != nil {
		return ServiceContainer{}, errors.Join(fmt.Errorf("dashboard service: %w", err), bundle.Close(context.Background()))
	}

	return ServiceContainer{
		Guard: service.NewGuard(service.GuardOptions{
			Malformed:     cfg.Auth.Guard.Malformed,
			EnforceExpiry: cfg.Auth.Guard.EnforceExpiry,
			Logger:        logger,
			Metrics:       sink,
		}),
		Root: service.NewRootResolver(service.RootResolverOptions{
			Malformed: cfg.Auth.Guard.RootMalformed,
			Logger:    logger,
			Metrics:   sink,
		}),
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Backend:  bundle.Client,
			Verifier: bundle.Verifier,
			Logger:   logger,
		}),
		Dashboard: dashboard,
		Store:     store,
		SignInLimiter: httpx.NewRateLimiter(httpx.RateLimitConfig{
			PerMinute: cfg.Auth.SignInLimit.PerMinute,
			Burst:     cfg.Auth.SignInLimit.Burst,
		}),
		Backend: bundle,
		Metrics: sink,
	}, nil
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

func launchBackground(deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(deps.ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-deps.ctx.Done():
			default:
				deps.logger.WarnContext(deps.ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(deps.ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	svcs := []backgroundService{
		{
			mode: config.ServiceModeTokenReaper,
			name: "token reaper",
			start: func(ctx context.Context) error {
				runner, err := reaper.NewRunner(reaper.RunnerOptions{
					DB:      deps.cfg.DB,
					Config:  deps.cfg.Config.Reaper,
					Logger:  deps.logger,
					Metrics: deps.cfg.Services.Metrics,
				})
				if err != nil {
					return err
				}
				return runner.Run(ctx)
			},
		},
	}
	if limiter := deps.cfg.Services.SignInLimiter; limiter != nil {
		// Idle limiter eviction lives as long as the HTTP server.
		svcs = append(svcs, backgroundService{
			mode: config.ServiceModeHTTP,
			name: "sign-in limiter cleanup",
			start: func(ctx context.Context) error {
				limiter.Run(ctx)
				return nil
			},
		})
	}
	return svcs
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// It blocks until a shutdown signal arrives or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelCapacity(enabled)+1)

	deps := &serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabled,
		errCh:           errCh,
	}

	var server *http.Server
	if enabled[config.ServiceModeHTTP] {
		server, err = StartHTTPServer(&HTTPServerConfig{
			Config:      cfg.Config,
			Services:    cfg.Services,
			DB:          cfg.DB,
			RedisClient: cfg.RedisClient,
			Logger:      logger,
			ErrCh:       errCh,
		})
		if err != nil {
			return err
		}
	}

	var handles []backgroundServiceHandle
	for _, svc := range buildBackgroundServices(deps) {
		if done := launchBackground(deps, svc); done != nil {
			handles = append(handles, backgroundServiceHandle{name: svc.name, done: done})
		}
	}

	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  server,
		backend:     cfg.Services.Backend,
		logger:      logger,
		backgrounds: handles,
	})
}

type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	backend     *BackendBundle
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

func gracefulStop(cfg shutdownConfig) error {
	// The service context is already cancelled; shutdown gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
	defer cancel()

	var errs []error
	if cfg.httpServer != nil {
		errs = append(errs, ShutdownHTTPServer(ctx, cfg.httpServer, cfg.logger))
	}
	if err := cfg.backend.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop dev backend: %w", err))
	}
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
	return errors.Join(errs...)
}

func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
