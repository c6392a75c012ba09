package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// jsonLogEntry mirrors the structured-logging shape used by hosted log
// aggregators: one flat JSON object per line.
type jsonLogEntry struct {
	Timestamp time.Time              `json:"timestamp,omitempty"`
	Message   string                 `json:"message"`
	Severity  string                 `json:"severity,omitempty"`
	Component string                 `json:"component,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func (e jsonLogEntry) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		log.Printf("logger: json.Marshal: %v", err)
	}
	return string(out)
}

type jsonLogger struct {
	metadata  map[string]interface{}
	component string
	sink      Sink
	sinkLvl   LogLevel
	noConsole bool
	logLevel  LogLevel
	child     Logger
}

var _ SinkLogger = (*jsonLogger)(nil)

// NewJSONLogger returns a Logger that writes one JSON object per line to
// stderr via the standard log package, suitable for container/production use.
func NewJSONLogger(levels ...LogLevel) Logger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &jsonLogger{logLevel: level, metadata: map[string]interface{}{}}
}

// NewJSONLoggerWithSink returns a JSON logger that writes only to sink,
// suppressing the console line.
func NewJSONLoggerWithSink(sink Sink, level LogLevel) SinkLogger {
	return &jsonLogger{noConsole: true, sink: sink, sinkLvl: level, metadata: map[string]interface{}{}}
}

func (c *jsonLogger) clone() *jsonLogger {
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &jsonLogger{
		metadata:  metadata,
		component: c.component,
		noConsole: c.noConsole,
		sink:      c.sink,
		sinkLvl:   c.sinkLvl,
		logLevel:  c.logLevel,
		child:     c.child,
	}
}

func (c *jsonLogger) WithContext(_ context.Context) Logger {
	return c.clone()
}

func (c *jsonLogger) WithPrefix(prefix string) Logger {
	l := c.clone()
	if l.component == "" {
		l.component = prefix
	} else if !strings.Contains(l.component, prefix) {
		l.component = l.component + " " + prefix
	}
	if l.child != nil {
		l.child = l.child.WithPrefix(prefix)
	}
	return l
}

func (c *jsonLogger) With(metadata map[string]interface{}) Logger {
	l := c.clone()
	for k, v := range metadata {
		l.metadata[k] = v
	}
	if comp, ok := l.metadata["component"].(string); ok {
		l.component = comp
		delete(l.metadata, "component")
	}
	if l.child != nil {
		l.child = l.child.With(metadata)
	}
	return l
}

func (c *jsonLogger) SetSink(sink Sink, level LogLevel) {
	c.sink = sink
	c.sinkLvl = level
	if child, ok := c.child.(SinkLogger); ok {
		child.SetSink(sink, level)
	}
}

func (c *jsonLogger) log(level LogLevel, msg string, args ...interface{}) {
	if level < c.logLevel && level < c.sinkLvl {
		return
	}
	text := msg
	if len(args) > 0 {
		text = fmt.Sprintf(msg, args...)
	}
	entry := jsonLogEntry{
		Timestamp: time.Now(),
		Message:   text,
		Severity:  levelName(level),
		Component: c.component,
		Metadata:  c.metadata,
	}
	if !c.noConsole && level >= c.logLevel {
		log.Println(entry.String())
	}
	if c.sink != nil && level >= c.sinkLvl {
		entry.Message = ansiColorStripper.ReplaceAllString(entry.Message, "")
		buf, _ := json.Marshal(entry)
		c.sink.Write(buf)
	}
}

func (c *jsonLogger) Trace(msg string, args ...interface{}) {
	c.log(LevelTrace, msg, args...)
	if c.child != nil {
		c.child.Trace(msg, args...)
	}
}

func (c *jsonLogger) Debug(msg string, args ...interface{}) {
	c.log(LevelDebug, msg, args...)
	if c.child != nil {
		c.child.Debug(msg, args...)
	}
}

func (c *jsonLogger) Info(msg string, args ...interface{}) {
	c.log(LevelInfo, msg, args...)
	if c.child != nil {
		c.child.Info(msg, args...)
	}
}

func (c *jsonLogger) Warn(msg string, args ...interface{}) {
	c.log(LevelWarn, msg, args...)
	if c.child != nil {
		c.child.Warn(msg, args...)
	}
}

func (c *jsonLogger) Error(msg string, args ...interface{}) {
	c.log(LevelError, msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
}

func (c *jsonLogger) Fatal(msg string, args ...interface{}) {
	c.log(LevelError, msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
}

func (c *jsonLogger) Stack(next Logger) Logger {
	l := c.clone()
	l.child = next
	return l
}

func (c *jsonLogger) IsLevelEnabled(level LogLevel) bool { return level >= c.logLevel }
func (c *jsonLogger) IsTraceEnabled() bool               { return c.IsLevelEnabled(LevelTrace) }
func (c *jsonLogger) IsDebugEnabled() bool               { return c.IsLevelEnabled(LevelDebug) }
func (c *jsonLogger) IsInfoEnabled() bool                { return c.IsLevelEnabled(LevelInfo) }
func (c *jsonLogger) IsWarnEnabled() bool                { return c.IsLevelEnabled(LevelWarn) }
func (c *jsonLogger) IsErrorEnabled() bool               { return c.IsLevelEnabled(LevelError) }
