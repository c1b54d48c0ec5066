package config

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"node-metrics/internal/util"
)

// DefaultConfigPath is used when no --config flag is given. A missing file
// at this path is not an error.
const DefaultConfigPath = "./config.yml"

// EnvPrefix prefixes every environment variable read by Load,
// e.g. METRICS_DATABASE_TYPE.
const EnvPrefix = "METRICS_"

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	HTTP      HTTP      `yaml:"http" envPrefix:"HTTP_"`
	Database  Database  `yaml:"database" envPrefix:"DATABASE_"`
	Logging   Logging   `yaml:"logging" envPrefix:"LOGGING_"`
	Telemetry Telemetry `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

type HTTP struct {
	Address         string        `yaml:"address" env:"ADDRESS" default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" default:"25s"`
}

type Database struct {
	// Type is either sqlite or postgres.
	Type string `yaml:"type" env:"TYPE" default:"sqlite"`

	// Path of the SQLite database file.
	Path string `yaml:"path" env:"PATH" default:"../db/metrics.db"`

	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn" env:"DSN"`

	// Table holding the metric records. Services sharing one database
	// should each use their own table.
	Table string `yaml:"table" env:"TABLE" default:"node_system_metrics"`

	// Maximum number of open connections. Ignored for SQLite.
	MaxConnections int `yaml:"max_connections" env:"MAX_CONNECTIONS" default:"16"`
}

type Logging struct {
	Folder  string `yaml:"folder" env:"FOLDER" default:"../log"`
	File    string `yaml:"file" env:"FILE" default:"webService.log"`
	Level   string `yaml:"level" env:"LEVEL" default:"info"`
	Console bool   `yaml:"console" env:"CONSOLE" default:"false"`
}

type Telemetry struct {
	// Address serves Prometheus metrics at /metrics. Empty disables it.
	Address string `yaml:"address" env:"ADDRESS" default:":9464"`
}

// Load builds a Config from defaults, the YAML file at path and METRICS_*
// environment variables, in that order of precedence. If explicit is false,
// a missing file is skipped.
func Load(path string, explicit bool) (*Config, error) {
	c := &Config{}

	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "can't set config defaults")
	}

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "can't parse YAML file "+path)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, errors.Wrap(err, "can't open YAML file "+path)
	}

	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "can't parse environment variables")
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return c, nil
}

// Validate checks constraints in the supplied configuration and returns an error if they are violated.
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}

	return c.Logging.Validate()
}

func (h *HTTP) Validate() error {
	if h.Address == "" {
		return errors.New("http address cannot be empty")
	}
	if h.ShutdownTimeout <= 0 {
		return errors.New("http shutdown_timeout must be positive")
	}

	return nil
}

func (d *Database) Validate() error {
	switch d.Type {
	case DatabaseSQLite:
		if d.Path == "" {
			return errors.New("database path is required for sqlite")
		}
	case DatabasePostgres:
		if d.DSN == "" {
			return errors.New("database dsn is required for postgres")
		}
	default:
		return errors.Errorf("unknown database type %q, expected %s or %s", d.Type, DatabaseSQLite, DatabasePostgres)
	}

	if !identifierPattern.MatchString(d.Table) {
		return errors.Errorf("database table %q is not a valid identifier", d.Table)
	}

	if d.MaxConnections == 0 {
		return errors.New("max_connections cannot be 0. Configure a value greater than zero, or use -1 for no connection limit")
	}

	return nil
}

func (l *Logging) Validate() error {
	if l.File == "" {
		return errors.New("logging file cannot be empty")
	}

	_, err := util.ParseLevel(l.Level)
	return err
}

// LogConfig converts the logging section for util.MetricsLogger.
func (l Logging) LogConfig() util.LogConfig {
	return util.LogConfig{
		Folder:   l.Folder,
		FileName: l.File,
		Level:    l.Level,
		Console:  l.Console,
	}
}
