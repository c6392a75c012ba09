package logger

import "context"

// TestLogEntry records one call made against a TestLogger.
type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// TestLogger is a Logger that records entries in memory instead of writing
// them anywhere, for assertions in unit tests.
type TestLogger struct {
	metadata map[string]interface{}
	Logs     []TestLogEntry
	child    Logger
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a Logger useful for asserting on emitted messages.
func NewTestLogger() *TestLogger {
	return &TestLogger{Logs: make([]TestLogEntry, 0)}
}

func (c *TestLogger) WithContext(_ context.Context) Logger { return c }

func (c *TestLogger) WithPrefix(_ string) Logger { return c }

func (c *TestLogger) With(metadata map[string]interface{}) Logger {
	kv := make(map[string]interface{}, len(c.metadata)+len(metadata))
	for k, v := range c.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	child := c.child
	if child != nil {
		child = child.With(metadata)
	}
	return &TestLogger{metadata: kv, Logs: c.Logs, child: child}
}

func (c *TestLogger) record(level string, msg string, args ...interface{}) {
	c.Logs = append(c.Logs, TestLogEntry{Severity: level, Message: msg, Arguments: args})
}

func (c *TestLogger) Trace(msg string, args ...interface{}) {
	c.record("TRACE", msg, args...)
	if c.child != nil {
		c.child.Trace(msg, args...)
	}
}

func (c *TestLogger) Debug(msg string, args ...interface{}) {
	c.record("DEBUG", msg, args...)
	if c.child != nil {
		c.child.Debug(msg, args...)
	}
}

func (c *TestLogger) Info(msg string, args ...interface{}) {
	c.record("INFO", msg, args...)
	if c.child != nil {
		c.child.Info(msg, args...)
	}
}

func (c *TestLogger) Warn(msg string, args ...interface{}) {
	c.record("WARN", msg, args...)
	if c.child != nil {
		c.child.Warn(msg, args...)
	}
}

func (c *TestLogger) Error(msg string, args ...interface{}) {
	c.record("ERROR", msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
}

func (c *TestLogger) Fatal(msg string, args ...interface{}) {
	c.record("FATAL", msg, args...)
	if c.child != nil {
		c.child.Fatal(msg, args...)
	}
}

func (c *TestLogger) Stack(next Logger) Logger {
	return &TestLogger{metadata: c.metadata, Logs: c.Logs, child: next}
}

func (c *TestLogger) IsLevelEnabled(_ LogLevel) bool { return true }
func (c *TestLogger) IsTraceEnabled() bool           { return true }
func (c *TestLogger) IsDebugEnabled() bool           { return true }
func (c *TestLogger) IsInfoEnabled() bool            { return true }
func (c *TestLogger) IsWarnEnabled() bool            { return true }
func (c *TestLogger) IsErrorEnabled() bool           { return true }
