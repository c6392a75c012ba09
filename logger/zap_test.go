package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToZapWritesThroughToLogger(t *testing.T) {
	tl := NewTestLogger()
	zl := ToZap(tl)

	zl.Info("hello from zap")

	require.Len(t, tl.Logs, 1)
	assert.Equal(t, "INFO", tl.Logs[0].Severity)
	assert.Equal(t, "hello from zap", tl.Logs[0].Message)
}

func TestZapBridgeRespectsLevel(t *testing.T) {
	tl := NewTestLogger()
	zl := ToZap(tl)

	zl.Debug("suppressed only if level check fails")
	require.Len(t, tl.Logs, 1)
	assert.Equal(t, "DEBUG", tl.Logs[0].Severity)
}
