package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fire sends one GET through the handler from the given remote address and
// returns the recorded response.
func fire(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/generate", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func limitedOK(rps float64, burst int) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RateLimiter(rps, burst)(next)
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	h := limitedOK(100, 10)

	for range 5 {
		rec := fire(h, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	h := limitedOK(1, 2)

	for range 2 {
		require.Equal(t, http.StatusOK, fire(h, "").Code)
	}

	rec := fire(h, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.InDelta(t, 429, body["code"], 0.001)
	assert.Equal(t, "rate limit exceeded", body["message"])
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	h := limitedOK(1, 2)

	for range 2 {
		require.Equal(t, http.StatusOK, fire(h, "172.16.0.10:40001").Code)
	}

	// The same IP from a fresh source port stays limited.
	assert.Equal(t, http.StatusTooManyRequests, fire(h, "172.16.0.10:40002").Code)

	// A different IP has its own bucket.
	assert.Equal(t, http.StatusOK, fire(h, "172.16.0.11:40001").Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{name: "IPv4 with port", remoteAddr: "198.51.100.7:52100", want: "198.51.100.7"},
		{name: "IPv6 with port", remoteAddr: "[2001:db8::1]:52100", want: "2001:db8::1"},
		{name: "bare address without port", remoteAddr: "198.51.100.7", want: "198.51.100.7"},
		{name: "forwarded header is not trusted", remoteAddr: "172.16.0.10:52100", xff: "203.0.113.99", want: "172.16.0.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
