package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapBridge adapts a Logger into a zapcore.Core so callers already
// standardized on zap can feed their *zap.Logger into any kinexis sink.
type zapBridge struct {
	logger Logger
}

func (z *zapBridge) Enabled(level zapcore.Level) bool {
	return z.logger.IsLevelEnabled(fromZapLevel(level))
}

func fromZapLevel(level zapcore.Level) LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.InfoLevel:
		return LevelInfo
	case zapcore.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

func (z *zapBridge) With(fields []zapcore.Field) zapcore.Core {
	metadata := make(map[string]interface{}, len(fields))
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	for k, v := range enc.Fields {
		metadata[k] = v
	}
	return &zapBridge{logger: z.logger.With(metadata)}
}

func (z *zapBridge) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if z.Enabled(entry.Level) {
		return ce.AddCore(entry, z)
	}
	return ce
}

func (z *zapBridge) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	args := make([]interface{}, 0, len(enc.Fields)*2)
	for k, v := range enc.Fields {
		args = append(args, k, v)
	}

	switch entry.Level {
	case zapcore.DebugLevel:
		z.logger.Debug(entry.Message, args...)
	case zapcore.InfoLevel:
		z.logger.Info(entry.Message, args...)
	case zapcore.WarnLevel:
		z.logger.Warn(entry.Message, args...)
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		z.logger.Error(entry.Message, args...)
	default:
		z.logger.Trace(entry.Message, args...)
	}
	return nil
}

func (z *zapBridge) Sync() error { return nil }

// ToZap returns a *zap.Logger that writes through to the given Logger.
func ToZap(logger Logger) *zap.Logger {
	return zap.New(&zapBridge{logger: logger})
}
