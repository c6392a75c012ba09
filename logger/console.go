package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	Reset       = "\033[0m"
	Red         = "\033[31m"
	Green       = "\033[32m"
	Yellow      = "\033[33m"
	Magenta     = "\033[35m"
	BlueBold    = "\033[34;1m"
	MagentaBold = "\033[35;1m"
	RedBold     = "\033[31;1m"
	YellowBold  = "\033[33;1m"
	WhiteBold   = "\033[37;1m"
	CyanBold    = "\033[36;1m"
	Gray        = "\033[1;90m"
	Purple      = "[38;5;200m"
)

type consoleLogger struct {
	prefixes []string
	metadata map[string]interface{}
	sink     Sink
	logLevel LogLevel
	sinkLvl  LogLevel
	child    Logger
}

var _ SinkLogger = (*consoleLogger)(nil)

// NewConsoleLogger returns a colorized, interactive-friendly Logger.
// With no argument it reads its level from KINEXIS_LOG_LEVEL.
func NewConsoleLogger(levels ...LogLevel) SinkLogger {
	level := GetLevelFromEnv()
	if len(levels) > 0 {
		level = levels[0]
	}
	return &consoleLogger{logLevel: level, sinkLvl: LevelNone, metadata: map[string]interface{}{}}
}

func (c *consoleLogger) clone() *consoleLogger {
	metadata := make(map[string]interface{}, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	prefixes := make([]string, len(c.prefixes))
	copy(prefixes, c.prefixes)
	return &consoleLogger{
		prefixes: prefixes,
		metadata: metadata,
		sink:     c.sink,
		logLevel: c.logLevel,
		sinkLvl:  c.sinkLvl,
		child:    c.child,
	}
}

func (c *consoleLogger) WithContext(_ context.Context) Logger {
	return c.clone()
}

func (c *consoleLogger) WithPrefix(prefix string) Logger {
	l := c.clone()
	if !slices.Contains(l.prefixes, prefix) {
		l.prefixes = append(l.prefixes, prefix)
	}
	if l.child != nil {
		l.child = l.child.WithPrefix(prefix)
	}
	return l
}

func (c *consoleLogger) With(metadata map[string]interface{}) Logger {
	l := c.clone()
	for k, v := range metadata {
		l.metadata[k] = v
	}
	if l.child != nil {
		l.child = l.child.With(metadata)
	}
	return l
}

func (c *consoleLogger) SetSink(sink Sink, level LogLevel) {
	c.sink = sink
	c.sinkLvl = level
	if child, ok := c.child.(SinkLogger); ok {
		child.SetSink(sink, level)
	}
}

func levelColor(l LogLevel) (string, string) {
	switch l {
	case LevelTrace:
		return CyanBold, Gray
	case LevelDebug:
		return BlueBold, Green
	case LevelInfo:
		return YellowBold, WhiteBold
	case LevelWarn:
		return MagentaBold, Magenta
	case LevelError:
		return RedBold, Red
	default:
		return "", ""
	}
}

func (c *consoleLogger) log(level LogLevel, msg string, args ...interface{}) {
	if level < c.logLevel && level < c.sinkLvl {
		return
	}
	text := fmt.Sprintf(msg, args...)
	lvlColor, msgColor := levelColor(level)
	var prefix string
	if len(c.prefixes) > 0 {
		prefix = color(Purple) + strings.Join(c.prefixes, " ") + color(Reset) + " "
	}
	var suffix string
	if len(c.metadata) > 0 {
		buf, _ := json.Marshal(c.metadata)
		suffix = " " + color(Gray) + string(buf) + color(Reset)
	}
	name := levelName(level)
	pad := strings.Repeat(" ", max(0, 5-len(name)))
	out := fmt.Sprintf("%s%s%s %s%s%s%s", color(lvlColor), "["+name+"]"+pad, color(Reset), prefix, color(msgColor), text, color(Reset)+suffix)
	if level >= c.logLevel {
		log.Println(out)
	}
	if c.sink != nil && level >= c.sinkLvl {
		ts := time.Now().Format(time.RFC3339Nano)
		c.sink.Write([]byte(ts + " " + ansiColorStripper.ReplaceAllString(out, "") + "\n"))
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (c *consoleLogger) Trace(msg string, args ...interface{}) {
	c.log(LevelTrace, msg, args...)
	if c.child != nil {
		c.child.Trace(msg, args...)
	}
}

func (c *consoleLogger) Debug(msg string, args ...interface{}) {
	c.log(LevelDebug, msg, args...)
	if c.child != nil {
		c.child.Debug(msg, args...)
	}
}

func (c *consoleLogger) Info(msg string, args ...interface{}) {
	c.log(LevelInfo, msg, args...)
	if c.child != nil {
		c.child.Info(msg, args...)
	}
}

func (c *consoleLogger) Warn(msg string, args ...interface{}) {
	c.log(LevelWarn, msg, args...)
	if c.child != nil {
		c.child.Warn(msg, args...)
	}
}

func (c *consoleLogger) Error(msg string, args ...interface{}) {
	c.log(LevelError, msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
}

func (c *consoleLogger) Fatal(msg string, args ...interface{}) {
	c.log(LevelError, msg, args...)
	if c.child != nil {
		c.child.Error(msg, args...)
	}
	os.Exit(1)
}

func (c *consoleLogger) Stack(next Logger) Logger {
	l := c.clone()
	l.child = next
	return l
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool { return level >= c.logLevel }
func (c *consoleLogger) IsTraceEnabled() bool               { return c.IsLevelEnabled(LevelTrace) }
func (c *consoleLogger) IsDebugEnabled() bool               { return c.IsLevelEnabled(LevelDebug) }
func (c *consoleLogger) IsInfoEnabled() bool                { return c.IsLevelEnabled(LevelInfo) }
func (c *consoleLogger) IsWarnEnabled() bool                { return c.IsLevelEnabled(LevelWarn) }
func (c *consoleLogger) IsErrorEnabled() bool               { return c.IsLevelEnabled(LevelError) }
