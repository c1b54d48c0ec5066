package repository

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"node-metrics/internal/domain"
)

const DefaultTable = "node_system_metrics"

var (
	errStoreNotInitialized = errors.New("store is not initialized")
	tableNamePattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// dialect holds what differs between the supported databases. createTable is
// a format string taking the table name.
type dialect struct {
	name         string
	driver       string
	createTable  string
	maxOpenConns int
}

// SQLStore is a domain.MetricStore on top of a SQL database.
type SQLStore struct {
	db             *sqlx.DB
	dialect        dialect
	dsn            string
	table          string
	maxConnections int
	now            func() time.Time
}

type Option func(*SQLStore)

// WithTable overrides DefaultTable.
func WithTable(table string) Option {
	return func(s *SQLStore) {
		if table != "" {
			s.table = table
		}
	}
}

// WithClock sets the clock used to default missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		s.now = now
	}
}

func WithMaxConnections(n int) Option {
	return func(s *SQLStore) {
		s.maxConnections = n
	}
}

func newSQLStore(d dialect, dsn string, opts ...Option) *SQLStore {
	s := &SQLStore{
		dialect: d,
		dsn:     dsn,
		table:   DefaultTable,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLStore) Init() error {
	if !tableNamePattern.MatchString(s.table) {
		return errors.Errorf("invalid table name %q", s.table)
	}

	db, err := sqlx.Open(s.dialect.driver, s.dsn)
	if err != nil {
		return errors.Wrap(err, "error opening database")
	}

	switch {
	case s.dialect.maxOpenConns > 0:
		db.SetMaxOpenConns(s.dialect.maxOpenConns)
	case s.maxConnections > 0:
		db.SetMaxOpenConns(s.maxConnections)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return domain.NewStorageError("init", errors.Wrap(err, "error connecting to database"))
	}

	if _, err = db.Exec(fmt.Sprintf(s.dialect.createTable, s.table)); err != nil {
		_ = db.Close()
		return domain.NewStorageError("init", errors.Wrap(err, "error creating table"))
	}

	s.db = db

	log.Printf("%s store initialized, table %s.", s.dialect.name, s.table)
	return nil
}

// Save inserts metric and returns it with the assigned ID. A zero Timestamp
// is defaulted from the store clock right before the insert.
func (s *SQLStore) Save(ctx context.Context, metric domain.SystemMetric) (domain.SystemMetric, error) {
	if s.db == nil {
		return domain.SystemMetric{}, domain.NewStorageError("save", errStoreNotInitialized)
	}

	metric = metric.WithDefaults(s.now())
	// TIMESTAMPTZ keeps microseconds; the returned record must match what FindAll reads back.
	metric.Timestamp = metric.Timestamp.UTC().Truncate(time.Microsecond)

	err := s.db.QueryRowxContext(ctx, s.insertQuery(), metric.NodeName, metric.CPUUsage, metric.MemoryUsage, metric.Timestamp).
		Scan(&metric.ID)
	if err != nil {
		return domain.SystemMetric{}, domain.NewStorageError("save", errors.Wrap(err, "error inserting metric"))
	}

	return metric, nil
}

func (s *SQLStore) insertQuery() string {
	return sqlx.Rebind(sqlx.BindType(s.dialect.driver), fmt.Sprintf(
		"INSERT INTO %s (node_name, cpu_usage, memory_usage, created_at) VALUES (?, ?, ?, ?) RETURNING id",
		s.table,
	))
}

// FindAll returns every stored metric in insertion order. The result is never nil.
func (s *SQLStore) FindAll(ctx context.Context) ([]domain.SystemMetric, error) {
	if s.db == nil {
		return nil, domain.NewStorageError("find all", errStoreNotInitialized)
	}

	query := fmt.Sprintf(
		"SELECT id, node_name, cpu_usage, memory_usage, created_at FROM %s ORDER BY id ASC",
		s.table,
	)

	metrics := []domain.SystemMetric{}
	if err := s.db.SelectContext(ctx, &metrics, query); err != nil {
		return nil, domain.NewStorageError("find all", errors.Wrap(err, "error querying metrics"))
	}
	if metrics == nil {
		metrics = []domain.SystemMetric{}
	}

	return metrics, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
