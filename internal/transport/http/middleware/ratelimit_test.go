package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRealIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"socket address", "10.0.0.1:52000", nil, "10.0.0.1"},
		{"socket address without port", "10.0.0.1", nil, "10.0.0.1"},
		{"x-real-ip", "10.0.0.1:52000", map[string]string{"X-Real-Ip": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded single hop", "10.0.0.1:52000", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "203.0.113.7"},
		{"forwarded chain takes first hop", "10.0.0.1:52000", map[string]string{"X-Forwarded-For": "203.0.113.7, 198.51.100.2"}, "203.0.113.7"},
		{"forwarded wins over real-ip", "10.0.0.1:52000", map[string]string{"X-Forwarded-For": "203.0.113.7", "X-Real-Ip": "198.51.100.2"}, "203.0.113.7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, realIP(req))
		})
	}
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 2)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:52000"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:52000"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:52000"))

	// A different client gets its own bucket.
	assert.Equal(t, http.StatusOK, do("10.0.0.2:52000"))
}
