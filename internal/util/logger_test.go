package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestMetricsLogger_NotInitialized(t *testing.T) {
	var logger MetricsLogger

	assert.ErrorIs(t, logger.LogEvent(LOG_LEVEL_INFO, "dropped"), ErrLogNotInitialized)
	assert.ErrorIs(t, logger.LogFields(LOG_LEVEL_INFO, "dropped"), ErrLogNotInitialized)

	var nilLogger *MetricsLogger
	assert.ErrorIs(t, nilLogger.LogEvent("dropped"), ErrLogNotInitialized)

	logger.DeInit()
}

func TestMetricsLogger_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	var logger MetricsLogger
	require.NoError(t, logger.Init(LogConfig{Folder: dir, FileName: "test.log", Level: "info"}))

	assert.NoError(t, logger.LogEvent(LOG_LEVEL_INFO, "Service started"))
	assert.NoError(t, logger.LogEvent(LOG_LEVEL_ERROR, "Err -", "boom"))
	assert.NoError(t, logger.LogEvent(LOG_LEVEL_DEBUG, "filtered by level"))
	assert.NoError(t, logger.LogFields(LOG_LEVEL_WARN, "request", zap.String("method", "POST"), zap.Int("status", 400)))
	logger.DeInit()

	content, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)

	out := string(content)
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "Service started")
	assert.Contains(t, out, "Err - boom")
	assert.Contains(t, out, `"method": "POST"`)
	assert.NotContains(t, out, "filtered by level")

	assert.ErrorIs(t, logger.LogEvent("after deinit"), ErrLogNotInitialized)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"ERROR": zapcore.ErrorLevel,
		"warn":  zapcore.WarnLevel,
		"debug": zapcore.DebugLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestCheckAndCreateFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db", "nested")

	CheckAndCreateFolder(dir)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// existing folder and empty path are no-ops
	CheckAndCreateFolder(dir)
	CheckAndCreateFolder("")
}
