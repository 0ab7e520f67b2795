package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	kind  string
	name  string
	value any
	tags  map[string]string
}

type recordingSink struct {
	mu      sync.Mutex
	metrics []recordedMetric
}

func (r *recordingSink) Count(name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, recordedMetric{kind: "count", name: name, value: value, tags: tags})
}

func (r *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, recordedMetric{kind: "timing", name: name, value: value, tags: tags})
}

func TestEmitGuardDecision(t *testing.T) {
	sink := &recordingSink{}
	EmitGuardDecision(sink, GuardMetric{View: "root", Outcome: "sign-in", State: "expired", Cleared: true})

	require.Len(t, sink.metrics, 2)
	assert.Equal(t, "guard.decision", sink.metrics[0].name)
	assert.Equal(t, map[string]string{"view": "root", "outcome": "sign-in", "state": "expired"}, sink.metrics[0].tags)
	assert.Equal(t, "guard.token_cleared", sink.metrics[1].name)

	// tag maps are not shared between emissions
	sink.metrics[0].tags["view"] = "mutated"
	assert.Equal(t, "root", sink.metrics[1].tags["view"])
}

func TestEmitWidgetFetch(t *testing.T) {
	sink := &recordingSink{}
	EmitWidgetFetch(sink, WidgetMetric{Widget: "clients", Duration: 5 * time.Millisecond, Err: context.DeadlineExceeded})

	require.Len(t, sink.metrics, 2)
	assert.Equal(t, "dashboard.widget", sink.metrics[0].name)
	assert.Equal(t, ResultError, sink.metrics[0].tags["result"])
	assert.Equal(t, "timeout", sink.metrics[0].tags["error_class"])
	assert.Equal(t, "timing", sink.metrics[1].kind)

	sink.metrics = nil
	EmitWidgetFetch(sink, WidgetMetric{Widget: "clients"})
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, ResultSuccess, sink.metrics[0].tags["result"])
}

func TestEmitters_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitGuardDecision(nil, GuardMetric{})
		EmitWidgetFetch(nil, WidgetMetric{})
	})
}
