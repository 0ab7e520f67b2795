// Package reaper provides the adapter that runs the idle token reaper against Postgres.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/data"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/service"
)

// Runner wires the token reaper service to the Postgres token repository.
type Runner struct {
	reaper *service.TokenReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.ReaperConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Purger  ports.TokenPurger
	Metrics statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Purger == nil && opts.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	purger := opts.Purger
	if purger == nil {
		purger = data.NewTokenRepo(opts.DB)
	}

	svc, err := service.NewTokenReaperService(service.TokenReaperServiceOptions{
		Purger:  purger,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire token reaper: %w", err)
	}
	return &Runner{reaper: svc, logger: opts.Logger}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting token reaper runner")
	return r.reaper.Run(ctx)
}
