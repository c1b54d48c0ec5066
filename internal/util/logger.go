package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const LOG_BUFFER_SIZE = 1000

var ErrLogNotInitialized = errors.New("log object is not initialized yet")

const (
	LOG_LEVEL_ERROR = iota + 1
	LOG_LEVEL_WARN
	LOG_LEVEL_INFO
	LOG_LEVEL_DEBUG
)

// LogConfig describes where and how MetricsLogger writes.
type LogConfig struct {
	Folder   string
	FileName string
	Level    string
	Console  bool
	Rewrite  bool
}

// MetricsLogger hands entries to a background goroutine that writes them
// through zap, so request handlers never block on file I/O unless the
// buffer is full.
type MetricsLogger struct {
	mu                sync.RWMutex
	logBuffer         chan leveledEntry
	handle            *os.File
	wg                sync.WaitGroup
	loggerInitialized bool
	zapLogger         *zap.Logger
}

type leveledEntry struct {
	level  int
	logMsg string
	fields []zap.Field
}

func (m *MetricsLogger) Init(cfg LogConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loggerInitialized {
		return nil
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	CheckAndCreateFolder(cfg.Folder)

	flags := os.O_RDWR | os.O_CREATE | os.O_APPEND
	if cfg.Rewrite {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	m.handle, err = os.OpenFile(filepath.Join(cfg.Folder, cfg.FileName), flags, 0666)
	if err != nil {
		return err
	}

	m.zapLogger = newZapLogger(m.handle, level, cfg.Console)
	m.logBuffer = make(chan leveledEntry, LOG_BUFFER_SIZE)

	m.wg.Add(1)
	go m.logWriter()

	m.loggerInitialized = true
	return nil
}

func newZapLogger(file *os.File, level zapcore.Level, console bool) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.AddSync(file), level),
	}
	if console {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.Lock(os.Stderr), level))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// ParseLevel accepts error, warn, info and debug. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func (m *MetricsLogger) logWriter() {
	defer m.wg.Done()

	for entry := range m.logBuffer {
		switch entry.level {
		case LOG_LEVEL_ERROR:
			m.zapLogger.Error(entry.logMsg, entry.fields...)
		case LOG_LEVEL_WARN:
			m.zapLogger.Warn(entry.logMsg, entry.fields...)
		case LOG_LEVEL_INFO:
			m.zapLogger.Info(entry.logMsg, entry.fields...)
		case LOG_LEVEL_DEBUG:
			m.zapLogger.Debug(entry.logMsg, entry.fields...)
		}
	}
}

// LogEvent logs v at the level given as its first element, or at info level
// when the first element is not one of the LOG_LEVEL constants.
func (m *MetricsLogger) LogEvent(v ...interface{}) error {
	level := LOG_LEVEL_INFO
	var msg string

	if len(v) == 1 {
		msg = fmt.Sprint(v[0])
	} else if len(v) > 1 {
		if l, ok := v[0].(int); ok && l >= LOG_LEVEL_ERROR && l <= LOG_LEVEL_DEBUG {
			level = l
			v = v[1:]
		}
		msg = strings.TrimSuffix(fmt.Sprintln(v...), "\n")
	}

	return m.enqueue(leveledEntry{level: level, logMsg: msg})
}

// LogFields logs msg with structured zap fields.
func (m *MetricsLogger) LogFields(level int, msg string, fields ...zap.Field) error {
	return m.enqueue(leveledEntry{level: level, logMsg: msg, fields: fields})
}

func (m *MetricsLogger) enqueue(entry leveledEntry) error {
	if m == nil {
		return ErrLogNotInitialized
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.loggerInitialized {
		return ErrLogNotInitialized
	}
	m.logBuffer <- entry
	return nil
}

// DeInit flushes pending entries and closes the log file.
func (m *MetricsLogger) DeInit() {
	m.mu.Lock()
	if !m.loggerInitialized {
		m.mu.Unlock()
		return
	}
	m.loggerInitialized = false
	close(m.logBuffer)
	m.mu.Unlock()

	m.wg.Wait()

	_ = m.zapLogger.Sync()
	m.handle.Close()
}

func CheckAndCreateFolder(FolderNameWithPath string) {
	if FolderNameWithPath == "" {
		return
	}

	_, err := os.Stat(FolderNameWithPath)

	if os.IsNotExist(err) {
		err := os.MkdirAll(FolderNameWithPath, 0755)
		if err != nil {
			fmt.Println("Failed to create the log folder and Mkdir err :: ", err)
		}
	}
}
