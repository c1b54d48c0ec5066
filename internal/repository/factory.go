package repository

import (
	"path/filepath"

	"github.com/pkg/errors"

	"node-metrics/internal/config"
	"node-metrics/internal/util"
)

// New returns an uninitialized store for the configured database type.
func New(cfg config.Database, opts ...Option) (*SQLStore, error) {
	opts = append([]Option{WithTable(cfg.Table), WithMaxConnections(cfg.MaxConnections)}, opts...)

	switch cfg.Type {
	case config.DatabaseSQLite:
		util.CheckAndCreateFolder(filepath.Dir(cfg.Path))
		return NewSQLiteStore(cfg.Path, opts...), nil
	case config.DatabasePostgres:
		return NewPostgresStore(cfg.DSN, opts...), nil
	default:
		return nil, errors.Errorf("unknown storage type: %s", cfg.Type)
	}
}
