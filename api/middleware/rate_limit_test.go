package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairiemarket/storefront-backend/internal/ratelimit"
)

func newLimitedHandler(max int, window time.Duration) http.Handler {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), []ratelimit.Policy{
		{Scope: ratelimit.ScopeRates, Window: window, Max: max},
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RateLimit(limiter, ratelimit.ScopeRates, nil)(next)
}

func TestRateLimitAllowsWithinQuota(t *testing.T) {
	handler := newLimitedHandler(3, time.Minute)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rates", nil)
		req.RemoteAddr = "10.0.0.1:52000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitDeniesOverQuota(t *testing.T) {
	handler := newLimitedHandler(2, time.Minute)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rates", nil)
		req.RemoteAddr = "10.0.0.1:52000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodPost, "/rates", nil)
	req.RemoteAddr = "10.0.0.1:52000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimitSeparatesClients(t *testing.T) {
	handler := newLimitedHandler(1, time.Minute)

	first := httptest.NewRequest(http.MethodPost, "/rates", nil)
	first.Header.Set("X-Forwarded-For", "198.51.100.7")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	blocked := httptest.NewRequest(http.MethodPost, "/rates", nil)
	blocked.Header.Set("X-Forwarded-For", "198.51.100.7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, blocked)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	other := httptest.NewRequest(http.MethodPost, "/rates", nil)
	other.Header.Set("X-Forwarded-For", "198.51.100.8")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitNilLimiterPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(nil, ratelimit.ScopeAPI, nil)(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:40000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:40000"
	req.Header.Set("X-Real-IP", "203.0.113.10")
	assert.Equal(t, "203.0.113.10", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:40000"
	assert.Equal(t, "192.0.2.1", clientIP(req))
}
