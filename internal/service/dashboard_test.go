package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mocks "github.com/sakunasanka/Sona-frontend-admin-sub000/internal/mocks/auth"
	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

func defaultResponses() map[string]string {
	return map[string]string{
		"/api/admin/applications?status=pending": `{"data":[{"id":1},{"id":2},{"id":3}]}`,
		"/api/admin/clients":                     `{"total":42,"data":[]}`,
		"/api/blogs":                             `{"data":[{"status":"pending"},{"status":"approved"},{"status":"pending"}]}`,
		"/api/admin/analytics/summary":           `{"data":{"sessionsThisMonth":17}}`,
		"/api/messages/recent":                   `{"data":[{"senderName":"Ana","content":"hi","createdAt":"2026-01-01T00:00:00Z","id":9}]}`,
	}
}

func TestNewDashboardService_Validation(t *testing.T) {
	_, err := NewDashboardService(DashboardServiceOptions{})
	require.Error(t, err)

	backend := &mocks.StubBackend{}
	_, err = NewDashboardService(DashboardServiceOptions{Backend: backend, Widgets: []Widget{{Name: "x", Path: "/x", Expr: "data[?"}}})
	require.Error(t, err)

	_, err = NewDashboardService(DashboardServiceOptions{Backend: backend, Widgets: []Widget{{Name: "x", Path: "/x"}, {Name: "x", Path: "/y"}}})
	require.Error(t, err)

	_, err = NewDashboardService(DashboardServiceOptions{Backend: backend, Widgets: []Widget{{Name: "x"}}})
	require.Error(t, err)

	svc, err := NewDashboardService(DashboardServiceOptions{Backend: backend})
	require.NoError(t, err)
	assert.Len(t, svc.widgets, len(DefaultWidgets()))
}

func TestDashboardService_LoadReshapes(t *testing.T) {
	backend := &mocks.StubBackend{Responses: defaultResponses()}
	svc, err := NewDashboardService(DashboardServiceOptions{Backend: backend, Clock: fixedClock})
	require.NoError(t, err)

	view, err := svc.Load(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, view.GeneratedAt)
	require.Len(t, view.Widgets, 5)

	w, ok := view.Widget("pending_applications")
	require.True(t, ok)
	assert.EqualValues(t, 3, w.Value)

	w, _ = view.Widget("clients")
	assert.EqualValues(t, 42, w.Value)

	w, _ = view.Widget("pending_blogs")
	assert.EqualValues(t, 2, w.Value)

	w, _ = view.Widget("sessions_this_month")
	assert.EqualValues(t, 17, w.Value)

	w, _ = view.Widget("recent_messages")
	assert.Empty(t, w.Error)
	encoded, err := json.Marshal(w.Value)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"from":"Ana","preview":"hi","at":"2026-01-01T00:00:00Z"}]`, string(encoded))

	// Every call carried the caller's token.
	for _, tok := range backend.Tokens {
		assert.Equal(t, "tok", tok)
	}
	assert.Len(t, backend.Tokens, 5)
}

func TestDashboardService_WidgetFailureDegrades(t *testing.T) {
	responses := defaultResponses()
	delete(responses, "/api/blogs")
	responses["/api/admin/analytics/summary"] = `not json`

	svc, err := NewDashboardService(DashboardServiceOptions{Backend: &mocks.StubBackend{Responses: responses}})
	require.NoError(t, err)

	view, err := svc.Load(context.Background(), "tok")
	require.NoError(t, err)

	w, _ := view.Widget("pending_blogs")
	assert.Equal(t, "unavailable", w.Error)
	assert.Nil(t, w.Value)

	w, _ = view.Widget("sessions_this_month")
	assert.Equal(t, "unavailable", w.Error)

	w, _ = view.Widget("clients")
	assert.Empty(t, w.Error)
}

func TestDashboardService_UnauthorizedAborts(t *testing.T) {
	backend := &mocks.StubBackend{GetJSONFunc: func(_ context.Context, _, path string) (json.RawMessage, error) {
		if path == "/api/admin/clients" {
			return nil, ports.ErrBackendUnauthorized
		}
		return json.RawMessage(`{"data":[]}`), nil
	}}
	svc, err := NewDashboardService(DashboardServiceOptions{Backend: backend})
	require.NoError(t, err)

	_, err = svc.Load(context.Background(), "stale")
	require.ErrorIs(t, err, ports.ErrBackendUnauthorized)
}

func TestDashboardService_ConcurrencyLimit(t *testing.T) {
	var inflight, peak atomic.Int32
	backend := &mocks.StubBackend{GetJSONFunc: func(context.Context, string, string) (json.RawMessage, error) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer inflight.Add(-1)
		return json.RawMessage(`{"data":[]}`), nil
	}}
	svc, err := NewDashboardService(DashboardServiceOptions{Backend: backend, Concurrency: 1})
	require.NoError(t, err)

	_, err = svc.Load(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load())
}

func TestDashboardService_FetchPassThrough(t *testing.T) {
	backend := &mocks.StubBackend{Responses: map[string]string{"/api/admin/applications": `{"data":[{"id":1,"name":"Dr A"}]}`}}
	svc, err := NewDashboardService(DashboardServiceOptions{Backend: backend})
	require.NoError(t, err)

	v, err := svc.Fetch(context.Background(), "tok", "/api/admin/applications", "data[].name")
	require.NoError(t, err)
	assert.Equal(t, []any{"Dr A"}, v)

	raw, err := svc.Fetch(context.Background(), "tok", "/api/admin/applications", "")
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, raw)

	_, err = svc.Fetch(context.Background(), "tok", "/missing", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrBackendUnauthorized))
}
