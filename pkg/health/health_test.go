package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, handler http.Handler, target string) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestLiveness(t *testing.T) {
	code, body := probe(t, NewHandler().LivenessHandler(), "/health/live")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, body.Status)
	assert.False(t, body.Timestamp.IsZero())
	assert.Empty(t, body.Checks)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name        string
		critical    map[string]Checker
		nonCritical map[string]Checker
		wantCode    int
		wantStatus  Status
		wantChecks  map[string]Status
	}{
		{
			name:       "nothing registered",
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
		{
			name:        "everything up",
			critical:    map[string]Checker{"store": ok},
			nonCritical: map[string]Checker{"sentiment_api": ok, "event_bus": ok},
			wantCode:    http.StatusOK,
			wantStatus:  StatusUp,
			wantChecks:  map[string]Status{"store": StatusUp, "sentiment_api": StatusUp, "event_bus": StatusUp},
		},
		{
			name:        "sentiment api down degrades",
			critical:    map[string]Checker{"store": ok},
			nonCritical: map[string]Checker{"sentiment_api": failing("dial tcp: refused")},
			wantCode:    http.StatusOK,
			wantStatus:  StatusDegraded,
			wantChecks:  map[string]Status{"store": StatusUp, "sentiment_api": StatusDown},
		},
		{
			name:        "every optional dependency down still serves",
			critical:    map[string]Checker{"store": ok},
			nonCritical: map[string]Checker{"sentiment_api": failing("down"), "event_bus": failing("no brokers")},
			wantCode:    http.StatusOK,
			wantStatus:  StatusDegraded,
			wantChecks:  map[string]Status{"sentiment_api": StatusDown, "event_bus": StatusDown},
		},
		{
			name:        "store down",
			critical:    map[string]Checker{"store": failing("connection refused")},
			nonCritical: map[string]Checker{"sentiment_api": ok},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
			wantChecks:  map[string]Status{"store": StatusDown, "sentiment_api": StatusUp},
		},
		{
			name:        "store down wins over degraded",
			critical:    map[string]Checker{"store": failing("db down")},
			nonCritical: map[string]Checker{"event_bus": failing("no brokers")},
			wantCode:    http.StatusServiceUnavailable,
			wantStatus:  StatusDown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler()
			for name, c := range tc.critical {
				h.RegisterCritical(name, c)
			}
			for name, c := range tc.nonCritical {
				h.RegisterNonCritical(name, c)
			}

			code, body := probe(t, h.ReadinessHandler(), "/health/ready")

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantStatus, body.Status)
			for name, want := range tc.wantChecks {
				assert.Equal(t, want, body.Checks[name].Status, name)
			}
			for name := range tc.critical {
				assert.True(t, body.Checks[name].Critical, name)
			}
			for name := range tc.nonCritical {
				assert.False(t, body.Checks[name].Critical, name)
			}
		})
	}
}

func TestReadiness_ReportsCheckError(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("sentiment_api", failing("sentiment api returned status 502"))

	_, body := probe(t, h.ReadinessHandler(), "/health/ready")
	assert.Equal(t, "sentiment api returned status 502", body.Checks["sentiment_api"].Error)
}

func TestRegister(t *testing.T) {
	t.Run("defaults to critical", func(t *testing.T) {
		h := NewHandler()
		h.Register("store", failing("fail"))

		code, body := probe(t, h.ReadinessHandler(), "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.True(t, body.Checks["store"].Critical)
	})

	t.Run("same name replaces", func(t *testing.T) {
		h := NewHandler()
		h.Register("store", failing("fail"))
		h.RegisterNonCritical("store", ok)

		code, body := probe(t, h.ReadinessHandler(), "/health/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, body.Checks, 1)
		assert.False(t, body.Checks["store"].Critical)
	})
}

func TestReadiness_CheckTimeout(t *testing.T) {
	h := NewHandler()
	h.SetCheckTimeout(20 * time.Millisecond)
	h.SetCheckTimeout(0)
	h.Register("store", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	code, body := probe(t, h.ReadinessHandler(), "/health/ready")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body.Checks["store"].Error, "deadline exceeded")
}

func TestMessageHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	MessageHandler("API is working!").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"API is working!"}`, rec.Body.String())
}
