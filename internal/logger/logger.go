package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface for structured logging. Fields are alternating key/value
// pairs.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Config selects the level and encoding of the logger
type Config struct {
	Level  string
	Format string
	// Output is a zap sink such as stdout or stderr; empty means stdout
	Output string
}

// ZapLogger implements Logger on top of a zap SugaredLogger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New creates a zap-backed logger. Unknown levels fall back to info and
// unknown formats to json.
func New(cfg Config) (Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encoding := "json"
	if strings.EqualFold(cfg.Format, "console") {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoding = "console"
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &ZapLogger{sugar: z.Sugar()}, nil
}

// NewFromCore wraps an existing zap core, used by tests with observed logs
func NewFromCore(core zapcore.Core) Logger {
	return &ZapLogger{sugar: zap.New(core, zap.AddCallerSkip(1)).Sugar()}
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Info logs an info message
func (l *ZapLogger) Info(msg string, fields ...interface{}) {
	l.sugar.Infow(msg, fields...)
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, err error, fields ...interface{}) {
	l.sugar.Errorw(msg, append([]interface{}{"error", err}, fields...)...)
}

// Warn logs a warning message
func (l *ZapLogger) Warn(msg string, fields ...interface{}) {
	l.sugar.Warnw(msg, fields...)
}

// Debug logs a debug message
func (l *ZapLogger) Debug(msg string, fields ...interface{}) {
	l.sugar.Debugw(msg, fields...)
}

// Fatal logs a fatal error and exits
func (l *ZapLogger) Fatal(msg string, err error, fields ...interface{}) {
	l.sugar.Fatalw(msg, append([]interface{}{"error", err}, fields...)...)
}

// With returns a child logger carrying the given fields
func (l *ZapLogger) With(fields ...interface{}) Logger {
	return &ZapLogger{sugar: l.sugar.With(fields...)}
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})         {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Fatal(string, error, ...interface{}) {}
func (n nopLogger) With(...interface{}) Logger        { return n }

// NewNopLogger returns a Logger that discards everything
func NewNopLogger() Logger { return nopLogger{} }
