package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	applicanthandler "ktp/internal/applicant/handler"
	applicantmetrics "ktp/internal/applicant/metrics"
	"ktp/internal/applicant/service"
	"ktp/internal/platform/config"
	"ktp/internal/platform/httpserver"
	"ktp/internal/platform/metrics"
	"ktp/internal/platform/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(t *testing.T, health func(context.Context) error) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := service.New(nil, service.WithMetrics(applicantmetrics.New(reg)))
	require.NoError(t, svc.Load(t.Context()))
	return newRouter(routerDeps{
		logger:   discardLogger(),
		handler:  applicanthandler.New(svc, discardLogger()),
		registry: reg,
		metrics:  metrics.New(reg),
		timeout:  time.Second,
		health:   health,
	})
}

func TestRouter(t *testing.T) {
	router := testRouter(t, func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/applications",
		strings.NewReader(`{"name":"Ayu","address":"2 Jl. Merdeka","region":"BALI"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ktp_applicant_operations_total{operation="submit",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `ktp_http_request_duration_seconds_count{method="POST",route="/applications`)
}

func TestRouterHealthFailure(t *testing.T) {
	router := testRouter(t, func(context.Context) error { return errors.New("dial tcp: refused") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunServerShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(ln.Addr().String(), testRouter(t, func(context.Context) error { return nil }))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, ln, time.Second, discardLogger()) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestOpenBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := config.Default()
		b, err := openBackend(t.Context(), cfg, discardLogger())
		require.NoError(t, err)
		assert.NoError(t, b.health(t.Context()))
		assert.NoError(t, b.close())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Backend = config.BackendSQLite
		b, err := openBackend(t.Context(), cfg, discardLogger())
		require.NoError(t, err)
		rows, err := b.gateway.LoadAll(t.Context())
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.NoError(t, b.close())
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Backend = "mongo"
		_, err := openBackend(t.Context(), cfg, discardLogger())
		assert.Error(t, err)
	})
}
