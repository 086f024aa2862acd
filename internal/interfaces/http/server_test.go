package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func (f fakePinger) Stats() map[string]interface{} {
	return map[string]interface{}{"open_connections": 1}
}

func TestHealthEndpoint(t *testing.T) {
	s := &Server{pinger: fakePinger{}}

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "connection_pool")
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	s := &Server{pinger: fakePinger{err: errors.New("connection refused")}}

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsRegistryObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetricsRegistry(reg)

	metrics.CheckStarted("GeneBiotypes")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ActiveChecks))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal))

	metrics.CheckFinished("GeneBiotypes", "pass", 120*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveChecks))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChecksTotal.WithLabelValues("GeneBiotypes", "pass")))
}

func TestMetricsEndpointServed(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetricsRegistry(reg)
	metrics.CheckStarted("ChromosomeAnnotation")
	metrics.CheckFinished("ChromosomeAnnotation", "skipped", time.Millisecond)

	server := NewServer(DefaultServerConfig(), reg, fakePinger{})

	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datacheck_runs_total")
	assert.Contains(t, rec.Body.String(), `result="skipped"`)
}
