package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevelFromEnvDefaultsToInfo(t *testing.T) {
	t.Setenv("KINEXIS_LOG_LEVEL", "")
	assert.Equal(t, LevelInfo, GetLevelFromEnv())
}

func TestGetLevelFromEnvParsesKnownValues(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   LevelTrace,
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"none":    LevelNone,
		"off":     LevelNone,
		"bogus":   LevelInfo,
	}
	for env, want := range cases {
		t.Setenv("KINEXIS_LOG_LEVEL", env)
		assert.Equal(t, want, GetLevelFromEnv(), "env=%s", env)
	}
}

func TestTestLoggerRecordsEntries(t *testing.T) {
	l := NewTestLogger()
	l.Info("hello %s", "world")
	l.Warn("careful")

	require.Len(t, l.Logs, 2)
	assert.Equal(t, "INFO", l.Logs[0].Severity)
	assert.Equal(t, "hello %s", l.Logs[0].Message)
	assert.Equal(t, []interface{}{"world"}, l.Logs[0].Arguments)
	assert.Equal(t, "WARN", l.Logs[1].Severity)
}

func TestStackFansOutToChild(t *testing.T) {
	child := NewTestLogger()
	parent := NewTestLogger()
	stacked := parent.Stack(child)

	stacked.Error("boom")

	require.Len(t, child.Logs, 1)
	assert.Equal(t, "ERROR", child.Logs[0].Severity)
}

func TestConsoleLoggerIsLevelEnabled(t *testing.T) {
	l := NewConsoleLogger(LevelWarn)
	assert.False(t, l.IsInfoEnabled())
	assert.True(t, l.IsWarnEnabled())
	assert.True(t, l.IsErrorEnabled())
}

func TestJSONLoggerWithSinkWritesEntries(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLoggerWithSink(&buf, LevelInfo)
	l.With(map[string]interface{}{"entity": "Widget"}).Info("saved %d", 3)

	var entry jsonLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saved 3", entry.Message)
	assert.Equal(t, "INFO", entry.Severity)
	assert.Equal(t, "Widget", entry.Metadata["entity"])
}

func TestJSONLoggerFatalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLoggerWithSink(&buf, LevelError)
	l.Fatal("fatal but survives in tests")
	assert.NotEmpty(t, buf.Bytes())
}
