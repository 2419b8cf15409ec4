package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycdesk/internal/platform/metrics"
	"kycdesk/pkg/platform/httputil"
	"kycdesk/pkg/requestcontext"
	"kycdesk/pkg/testutil"
)

type echoRoutes struct{}

func (echoRoutes) Register(r chi.Router) {
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"request_id": requestcontext.RequestID(ctx),
			"has_time":   !requestcontext.Now(ctx).IsZero(),
			"user_agent": requestcontext.UserAgent(ctx),
		})
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func newRouter(checks map[string]HealthCheck) (http.Handler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Checks:   checks,
		Handlers: []Registrar{echoRoutes{}},
	}), reg
}

func TestHealthz(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		h, _ := newRouter(map[string]HealthCheck{"store": func(context.Context) error { return nil }})
		rr := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		body := testutil.Decode[healthResponse](t, rr)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Checks["store"])
	})

	t.Run("failing check degrades", func(t *testing.T) {
		h, _ := newRouter(map[string]HealthCheck{
			"store":  func(context.Context) error { return nil },
			"events": func(context.Context) error { return errors.New("broker unreachable") },
		})
		rr := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := testutil.Decode[healthResponse](t, rr)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "broker unreachable", body.Checks["events"])
	})
}

func TestRequestContext(t *testing.T) {
	h, _ := newRouter(nil)
	req := testutil.JSONRequest(t, http.MethodPost, "/echo", map[string]string{})
	req.Header.Set("X-Request-ID", "req-1")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	rr := testutil.Serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
	body := testutil.Decode[map[string]any](t, rr)
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, true, body["has_time"])
	assert.Equal(t, "Mozilla/5.0", body["user_agent"])
}

func TestRejectsNonJSONBodies(t *testing.T) {
	h, _ := newRouter(nil)
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := testutil.Serve(h, req)
	testutil.AssertError(t, rr, http.StatusUnsupportedMediaType, "bad_request")
}

func TestRecoversPanics(t *testing.T) {
	h, _ := newRouter(nil)
	rr := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/boom", nil))
	testutil.AssertError(t, rr, http.StatusInternalServerError, "internal_error")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newRouter(nil)
	testutil.Serve(h, testutil.JSONRequest(t, http.MethodPost, "/echo", map[string]string{}))

	rr := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `kyc_http_requests_total{method="POST",route="/echo",status="200"} 1`)
}
