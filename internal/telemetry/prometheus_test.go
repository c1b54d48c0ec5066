package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors_Middleware(t *testing.T) {
	c := NewCollectors()

	r := mux.NewRouter()
	r.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}).Methods("POST")
	r.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}).Methods("GET")
	r.Use(c.Middleware)

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("POST", "/metrics", nil))
		assert.Equal(t, http.StatusCreated, rr.Code)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(c.TotalRequests.WithLabelValues("POST", "/metrics", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TotalRequests.WithLabelValues("GET", "/metrics", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.ActiveRequests))
}

func TestCollectors_Handler(t *testing.T) {
	c := NewCollectors()
	c.MetricsIngested.Add(2)
	c.StorageFailures.WithLabelValues("save").Inc()

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "node_metrics_records_ingested_total 2"))
	assert.True(t, strings.Contains(body, `node_metrics_storage_failures_total{op="save"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestStatusRecorder(t *testing.T) {
	rr := httptest.NewRecorder()
	rec := NewStatusRecorder(rr)
	assert.Equal(t, http.StatusOK, rec.Status)

	rec.WriteHeader(http.StatusServiceUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Status)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
