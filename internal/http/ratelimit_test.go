package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{PerMinute: 6, Burst: 2})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, wait := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, 10*time.Second, wait, float64(time.Second))

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "other clients have their own bucket")

	now = now.Add(10 * time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok, "bucket refills over time")
}

func TestRateLimiter_DisabledWhenRateZero(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{})
	for range 100 {
		ok, _ := l.Allow("x")
		require.True(t, ok)
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{PerMinute: 60, Burst: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(30 * time.Second)
	l.Allow("b")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Cleanup())
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "b")
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 1})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	post := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, post("192.0.2.1:1234").Code)

	rec := post("192.0.2.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	get := httptest.NewRequest(http.MethodGet, "/signin", nil)
	get.RemoteAddr = "192.0.2.1:1234"
	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, get)
	assert.Equal(t, http.StatusOK, getRec.Code, "GET is never limited")
}

func TestRateLimiter_ClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/signin", nil)
	req.RemoteAddr = "198.51.100.7:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	assert.Equal(t, "198.51.100.7", NewRateLimiter(RateLimitConfig{}).clientKey(req))
	trusting := NewRateLimiter(RateLimitConfig{TrustForwarded: true})
	assert.Equal(t, "10.0.0.1", trusting.clientKey(req), "the proxy-appended hop wins")

	req.Header.Add("X-Forwarded-For", "192.0.2.44")
	assert.Equal(t, "192.0.2.44", trusting.clientKey(req), "the last header line wins")

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "192.0.2.9")
	assert.Equal(t, "192.0.2.9", trusting.clientKey(req))
}

func TestRateLimiter_SpoofedForwardedForSharesBucket(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{PerMinute: 1, Burst: 1, TrustForwarded: true})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		req.Header.Set("X-Forwarded-For", spoofed+", 198.51.100.7")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
