package domain

import (
	"context"
	"time"
)

// SystemMetric is one CPU/memory sample reported by a node.
//
// ID is assigned by the store. NodeName, CPUUsage and MemoryUsage are
// optional and stay nil when the caller leaves them out.
type SystemMetric struct {
	ID          int64     `json:"id" db:"id"`
	NodeName    *string   `json:"nodeName" db:"node_name"`
	CPUUsage    *float64  `json:"cpuUsage" db:"cpu_usage"`
	MemoryUsage *float64  `json:"memoryUsage" db:"memory_usage"`
	Timestamp   time.Time `json:"timestamp" db:"created_at"`
}

// WithDefaults returns a copy of m ready to be inserted: the ID is cleared
// and a zero Timestamp is replaced by now.
func (m SystemMetric) WithDefaults(now time.Time) SystemMetric {
	m.ID = 0
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
	return m
}

type MetricStore interface {
	Init() error
	Save(ctx context.Context, metric SystemMetric) (SystemMetric, error)
	FindAll(ctx context.Context) ([]SystemMetric, error)
	Close() error
}
