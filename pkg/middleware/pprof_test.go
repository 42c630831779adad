package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewInsights/pkg/httputil"
	"github.com/utafrali/ReviewInsights/pkg/logger"
)

func serveAllowlist(cidrs []string, remoteAddr string) *httptest.ResponseRecorder {
	h := IPAllowlist(cidrs, logger.NewDiscard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPAllowlist(t *testing.T) {
	tests := []struct {
		name   string
		cidrs  []string
		remote string
		want   int
	}{
		{"loopback v4", DefaultDebugCIDRs, "127.0.0.1:5555", http.StatusOK},
		{"loopback v6", DefaultDebugCIDRs, "[::1]:5555", http.StatusOK},
		{"outside", DefaultDebugCIDRs, "10.1.2.3:5555", http.StatusForbidden},
		{"private range", []string{"10.0.0.0/8"}, "10.1.2.3:5555", http.StatusOK},
		{"no port", []string{"10.0.0.0/8"}, "10.1.2.3", http.StatusOK},
		{"garbage address", DefaultDebugCIDRs, "not-an-ip", http.StatusForbidden},
		{"empty list", nil, "127.0.0.1:5555", http.StatusForbidden},
		{"invalid cidr skipped", []string{"bogus", "127.0.0.0/8"}, "127.0.0.1:1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serveAllowlist(tt.cidrs, tt.remote).Code)
		})
	}
}

func TestIPAllowlist_ForbiddenBody(t *testing.T) {
	rec := serveAllowlist(DefaultDebugCIDRs, "192.168.1.1:80")

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "FORBIDDEN", body.Code)
}

func TestRegisterDebug(t *testing.T) {
	r := chi.NewRouter()
	RegisterDebug(r, DefaultDebugCIDRs, logger.NewDiscard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutine")

	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterDebug_GuardsExtraRoutes(t *testing.T) {
	var calls int
	r := chi.NewRouter()
	RegisterDebug(r, nil, logger.NewDiscard(), func(r chi.Router) {
		r.Delete("/debug/reviews", func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		})
	})

	for _, tc := range []struct {
		remote string
		want   int
	}{
		{"203.0.113.7:4444", http.StatusForbidden},
		{"[::1]:4444", http.StatusOK},
		{"127.0.0.1:4444", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodDelete, "/debug/reviews", nil)
		req.RemoteAddr = tc.remote
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.remote)
	}
	assert.Equal(t, 2, calls)
}
