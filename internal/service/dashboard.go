package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/metrics"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

// Widget is one dashboard tile: a backend path and a JMESPath expression reshaping its body.
type Widget struct {
	Name string
	Path string
	Expr string
}

// DefaultWidgets is the dashboard layout served when none is configured.
func DefaultWidgets() []Widget {
	return []Widget{
		{Name: "pending_applications", Path: "/api/admin/applications?status=pending", Expr: "length(data)"},
		{Name: "clients", Path: "/api/admin/clients", Expr: "total || length(data)"},
		{Name: "pending_blogs", Path: "/api/blogs", Expr: "length(data[?status=='pending'])"},
		{Name: "sessions_this_month", Path: "/api/admin/analytics/summary", Expr: "data.sessionsThisMonth"},
		{Name: "recent_messages", Path: "/api/messages/recent", Expr: "data[:5].{from: senderName, preview: content, at: createdAt}"},
	}
}

// WidgetResult is the reshaped value for a widget, or the error that degraded it.
type WidgetResult struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// DashboardView is the aggregated dashboard view-model.
type DashboardView struct {
	Widgets     []WidgetResult `json:"widgets"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

// Widget returns the named result.
func (v DashboardView) Widget(name string) (WidgetResult, bool) {
	for _, w := range v.Widgets {
		if w.Name == name {
			return w, true
		}
	}
	return WidgetResult{}, false
}

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Backend ports.Backend
	Widgets []Widget
	// Concurrency bounds parallel backend calls. Zero means one goroutine per widget.
	Concurrency int
	Clock       func() time.Time
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// DashboardService fans out widget fetches and reshapes the responses.
type DashboardService struct {
	backend     ports.Backend
	widgets     []Widget
	concurrency int
	clock       func() time.Time
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewDashboardService validates widget expressions and constructs the service.
func NewDashboardService(opts DashboardServiceOptions) (*DashboardService, error) {
	if opts.Backend == nil {
		return nil, errors.New("dashboard backend is required")
	}
	widgets := opts.Widgets
	if len(widgets) == 0 {
		widgets = DefaultWidgets()
	}
	seen := make(map[string]struct{}, len(widgets))
	for _, w := range widgets {
		if strings.TrimSpace(w.Name) == "" || strings.TrimSpace(w.Path) == "" {
			return nil, fmt.Errorf("widget %q: name and path are required", w.Name)
		}
		if _, dup := seen[w.Name]; dup {
			return nil, fmt.Errorf("widget %q declared twice", w.Name)
		}
		seen[w.Name] = struct{}{}
		if w.Expr == "" {
			continue
		}
		if _, err := jmespath.Compile(w.Expr); err != nil {
			return nil, fmt.Errorf("widget %q expression: %w", w.Name, err)
		}
	}

	svc := &DashboardService{
		backend:     opts.Backend,
		widgets:     widgets,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Load fetches every widget in parallel. A failing widget carries its error string,
// except ports.ErrBackendUnauthorized, which aborts the whole load.
func (s *DashboardService) Load(ctx context.Context, token string) (DashboardView, error) {
	results := make([]WidgetResult, len(s.widgets))

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, w := range s.widgets {
		g.Go(func() error {
			start := time.Now()
			value, err := s.fetch(gctx, token, w)
			metrics.EmitWidgetFetch(s.metrics, metrics.WidgetMetric{Widget: w.Name, Duration: time.Since(start), Err: err})
			if errors.Is(err, ports.ErrBackendUnauthorized) {
				return err
			}
			results[i] = WidgetResult{Name: w.Name, Value: value}
			if err != nil {
				s.logger.WarnContext(gctx, "dashboard widget degraded", "widget", w.Name, "error", err)
				results[i].Error = widgetError(err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DashboardView{}, err
	}
	return DashboardView{Widgets: results, GeneratedAt: s.clock().UTC()}, nil
}

// Fetch loads a single backend path and reshapes it with expr. An empty expr returns the body as decoded JSON.
func (s *DashboardService) Fetch(ctx context.Context, token, path, expr string) (any, error) {
	return s.fetch(ctx, token, Widget{Name: path, Path: path, Expr: expr})
}

func (s *DashboardService) fetch(ctx context.Context, token string, w Widget) (any, error) {
	raw, err := s.backend.GetJSON(ctx, token, w.Path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", w.Path, err)
	}
	if w.Expr == "" {
		return doc, nil
	}
	value, err := jmespath.Search(w.Expr, doc)
	if err != nil {
		return nil, fmt.Errorf("reshape %s: %w", w.Name, err)
	}
	return value, nil
}

func widgetError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unavailable"
	}
}
