package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/config"
	obserrors "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/errors"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

// TokenReaperServiceOptions groups dependencies for TokenReaperService.
type TokenReaperServiceOptions struct {
	Purger  ports.TokenPurger   // Required
	Config  config.ReaperConfig // Required
	Logger  *slog.Logger        // Optional
	Metrics statsd.Sink         // Optional
}

// TokenReaperService periodically deletes stored credentials nobody has touched for
// IdleMaxAge. It bounds storage growth only; sessions still end by exp or sign-out.
type TokenReaperService struct {
	purger  ports.TokenPurger
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewTokenReaperService constructs a new TokenReaperService.
func NewTokenReaperService(opts TokenReaperServiceOptions) (*TokenReaperService, error) {
	if opts.Purger == nil {
		return nil, errors.New("TokenPurger is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("reaper interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenReaperService{
		purger:  opts.Purger,
		config:  opts.Config,
		logger:  logger.With("component", "token_reaper"),
		metrics: opts.Metrics,
	}, nil
}

// Run purges once after a short jitter and then on every tick until ctx is done.
// Returns nil on graceful shutdown (context.Canceled).
func (s *TokenReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting token reaper",
		"interval", s.config.Interval,
		"idle_max_age", s.config.IdleMaxAge,
	)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.PurgeOnce(ctx); err != nil && !isContextCancellation(err) {
		s.logger.WarnContext(ctx, "initial token purge failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "token reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.PurgeOnce(ctx); err != nil && !isContextCancellation(err) {
				s.logger.WarnContext(ctx, "token purge failed", "error", err)
			}
		}
	}
}

// PurgeOnce deletes idle credentials and reports how many were removed.
func (s *TokenReaperService) PurgeOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.purger.PurgeIdle(ctx, int64(s.config.IdleMaxAge/time.Second))
	s.emit(n, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("purge idle tokens: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "purged idle tokens", "count", n)
	}
	return n, nil
}

func (s *TokenReaperService) emit(n int64, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{"result": "success"}
	if err != nil {
		tags["result"] = "error"
		tags["error_class"] = obserrors.Classify(err)
	}
	s.metrics.Count("token_reaper.purged", n, tags)
	s.metrics.Timing("token_reaper.duration", elapsed, tags)
}

// waitWithJitter adds a random delay up to 10% of the interval so replicas don't purge in lockstep.
func (s *TokenReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
