package endpoints

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"node-metrics/internal/domain"
	"node-metrics/internal/telemetry"
	"node-metrics/internal/util"
)

const HealthMessage = "Metrics Service is Running"

type Metrics struct {
	Response  APIResponse
	logger    *util.MetricsLogger
	store     domain.MetricStore
	telemetry *telemetry.Collectors
}

// Init wires the handler. collectors may be nil.
func (m *Metrics) Init(store domain.MetricStore, webSlogger *util.MetricsLogger, collectors *telemetry.Collectors) {
	m.store = store
	m.logger = webSlogger
	m.telemetry = collectors
}

// ListMetricsHandler serves GET /metrics with every stored record.
func (m *Metrics) ListMetricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics, err := m.store.FindAll(r.Context())
	if err != nil {
		m.writeStoreError(w, "find all", err)
		return
	}

	if metrics == nil {
		metrics = []domain.SystemMetric{}
	}

	if err := WriteJSON(w, http.StatusOK, metrics); err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While writing metrics response. Err - ", err)
	}
}

// IngestMetricHandler serves POST /metrics. Field values are not validated.
func (m *Metrics) IngestMetricHandler(w http.ResponseWriter, r *http.Request) {
	metric, err := decodeMetric(r.Body)
	if err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while unmarshalling JSON Body. Err -", err)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrMalformedRequest, http.StatusBadRequest)
		return
	}

	saved, err := m.store.Save(r.Context(), metric)
	if err != nil {
		m.writeStoreError(w, "save", err)
		return
	}

	if m.telemetry != nil {
		m.telemetry.MetricsIngested.Inc()
	}
	m.logger.LogEvent(util.LOG_LEVEL_DEBUG, "Stored metric with id", saved.ID)

	if err := WriteJSON(w, http.StatusCreated, saved); err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While writing ingest response. Err - ", err)
	}
}

// decodeMetric reads one JSON object from body. Any other JSON value,
// including null, is rejected.
func decodeMetric(body io.Reader) (domain.SystemMetric, error) {
	var (
		raw    json.RawMessage
		metric domain.SystemMetric
	)

	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return metric, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return metric, errors.New("request body is not a JSON object")
	}

	if err := json.Unmarshal(trimmed, &metric); err != nil {
		return metric, err
	}

	return metric, nil
}

// HealthHandler never touches the store.
func (m *Metrics) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusOK, HealthMessage)
}

func (m *Metrics) writeStoreError(w http.ResponseWriter, op string, err error) {
	status := GetStatusCode(err)

	if status == http.StatusRequestTimeout {
		m.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled during", op)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, status)
		return
	}

	if m.telemetry != nil {
		m.telemetry.StorageFailures.WithLabelValues(op).Inc()
	}
	m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while", op, "Err - ", err)

	// Driver errors stay in the log; callers only learn the store is unavailable.
	if status == http.StatusServiceUnavailable {
		err = domain.ErrStorageUnavailable
	}
	m.Response.WriteErrorResponseWithStatusCode(w, err, status)
}
