// Package metrics holds the console's named metric emitters.
package metrics

import (
	"time"

	obserrors "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/errors"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GuardMetric describes one guard or root-resolver evaluation.
type GuardMetric struct {
	View    string
	Outcome string
	State   string
	Cleared bool
}

// EmitGuardDecision counts a guard outcome.
func EmitGuardDecision(sink statsd.Sink, in GuardMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"view":    in.View,
		"outcome": in.Outcome,
		"state":   in.State,
	}
	sink.Count("guard.decision", 1, tags)
	if in.Cleared {
		sink.Count("guard.token_cleared", 1, CloneTags(tags))
	}
}

// WidgetMetric describes one dashboard widget fetch.
type WidgetMetric struct {
	Widget   string
	Duration time.Duration
	Err      error
}

// EmitWidgetFetch records latency and result for a dashboard widget.
func EmitWidgetFetch(sink statsd.Sink, in WidgetMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"widget": in.Widget, "result": ResultSuccess}
	if in.Err != nil {
		tags["result"] = ResultError
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("dashboard.widget", 1, tags)
	if in.Duration > 0 {
		sink.Timing("dashboard.widget.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
