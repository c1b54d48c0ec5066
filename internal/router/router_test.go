package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"node-metrics/internal/config"
	"node-metrics/internal/domain"
	"node-metrics/internal/endpoints"
	"node-metrics/internal/repository"
	"node-metrics/internal/telemetry"
	"node-metrics/internal/util"
)

func newTestServer(t *testing.T) (*httptest.Server, *telemetry.Collectors) {
	t.Helper()

	store := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	collectors := telemetry.NewCollectors()
	server := httptest.NewServer(NewRouter(store, &util.MetricsLogger{}, collectors))
	t.Cleanup(server.Close)

	return server, collectors
}

func getMetrics(t *testing.T, url string) []domain.SystemMetric {
	t.Helper()

	resp, err := http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var metrics []domain.SystemMetric
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&metrics))
	return metrics
}

func TestRouter_IngestAndList(t *testing.T) {
	server, collectors := newTestServer(t)

	// empty store
	assert.Empty(t, getMetrics(t, server.URL))

	resp, err := http.Post(server.URL+"/metrics", "application/json",
		bytes.NewBufferString(`{"nodeName":"node-1","cpuUsage":42.5,"memoryUsage":70.1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var saved domain.SystemMetric
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, int64(1), saved.ID)
	assert.False(t, saved.Timestamp.IsZero())

	all := getMetrics(t, server.URL)
	require.Len(t, all, 1)
	assert.Equal(t, saved.ID, all[0].ID)
	assert.Equal(t, "node-1", *all[0].NodeName)
	assert.Equal(t, 42.5, *all[0].CPUUsage)
	assert.Equal(t, 70.1, *all[0].MemoryUsage)
	assert.True(t, saved.Timestamp.Equal(all[0].Timestamp))

	// malformed body leaves the store untouched
	bad, err := http.Post(server.URL+"/metrics", "application/json", bytes.NewBufferString("not json"))
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Len(t, getMetrics(t, server.URL), 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.TotalRequests.WithLabelValues("POST", "/metrics", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.TotalRequests.WithLabelValues("POST", "/metrics", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.MetricsIngested))
}

func TestRouter_Health(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/metrics/health", "/health"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, endpoints.HealthMessage, buf.String(), path)
	}
}

func TestRouter_RequestIDIsEchoed(t *testing.T) {
	server, _ := newTestServer(t)

	req, _ := http.NewRequest("GET", server.URL+"/metrics/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	server, collectors := newTestServer(t)

	req, _ := http.NewRequest("DELETE", server.URL+"/metrics", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var apiResponse endpoints.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiResponse))
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, endpoints.METHOD_NOT_ALLOWED, apiResponse.ErrorCode)

	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	resp, err = http.Get(server.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.TotalRequests.WithLabelValues("DELETE", "unmatched", "405")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collectors.TotalRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := &config.Config{
		HTTP: config.HTTP{
			Address:         "127.0.0.1:0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
			ShutdownTimeout: time.Second,
		},
		Telemetry: config.Telemetry{Address: "127.0.0.1:0"},
	}

	store := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, store.Init())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, store, &util.MetricsLogger{}, telemetry.NewCollectors())
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	cfg := &config.Config{
		HTTP: config.HTTP{Address: "256.0.0.1:bad", ShutdownTimeout: time.Second},
	}

	err := Run(context.Background(), cfg, nil, &util.MetricsLogger{}, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot listen on")
}
