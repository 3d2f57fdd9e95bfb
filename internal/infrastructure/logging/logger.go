package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger interface for service and repository operations
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Options configures the zap backed logger
type Options struct {
	Level       string
	Format      string
	Environment string
	Service     string
}

// ZapLogger adapts a zap.SugaredLogger to Logger using key-value pairs
type ZapLogger struct {
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// NewZapLogger builds a production zap config with ISO8601 timestamps under "ts"
func NewZapLogger(opts Options) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = normalizeFormat(opts.Format)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = "info"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	service := strings.TrimSpace(opts.Service)
	if service == "" {
		service = "wellsync"
	}
	base = base.With(
		zap.String("service", service),
		zap.String("env", strings.TrimSpace(opts.Environment)),
	)

	return &ZapLogger{sugar: base.Sugar(), base: base}, nil
}

// NewFromZap wraps an existing zap logger (e.g. zaptest or zap.NewNop)
func NewFromZap(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{sugar: l.Sugar(), base: l}
}

// NewDefaultLogger returns a production logger at info level, or a no-op logger if zap cannot build
func NewDefaultLogger() Logger {
	l, err := NewZapLogger(Options{Level: "info"})
	if err != nil {
		return NewFromZap(zap.NewNop())
	}
	return l
}

func normalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		return "console"
	}
	return "json"
}

func (l *ZapLogger) Debug(msg string, fields ...interface{}) {
	l.sugar.Debugw(msg, normalizeFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields ...interface{}) {
	l.sugar.Infow(msg, normalizeFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields ...interface{}) {
	l.sugar.Warnw(msg, normalizeFields(fields)...)
}

func (l *ZapLogger) Error(msg string, fields ...interface{}) {
	l.sugar.Errorw(msg, normalizeFields(fields)...)
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

// Zap exposes the underlying logger
func (l *ZapLogger) Zap() *zap.Logger {
	return l.base
}

// normalizeFields makes the variadic slice safe for the sugared API.
// Expected format: key1, value1, key2, value2, ...
func normalizeFields(fields []interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields))
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
			if i+1 < len(fields) {
				out = append(out, key, fields[i], key+"_value", fields[i+1])
			} else {
				out = append(out, key, fields[i])
			}
			continue
		}
		if i+1 < len(fields) {
			out = append(out, key, fields[i+1])
		} else {
			out = append(out, fmt.Sprintf("field_%d", i/2), key)
		}
	}
	return out
}

// RepositoryError interface for error classification (to avoid circular imports)
type RepositoryError interface {
	Error() string
	GetCode() string
	IsRetryable() bool
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogRepositoryError logs classified errors with their code and context
func LogRepositoryError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	if repoErr, ok := err.(RepositoryError); ok {
		fields := []interface{}{
			"operation", operation,
			"error_code", repoErr.GetCode(),
			"retryable", repoErr.IsRetryable(),
			"timestamp", repoErr.GetTimestamp(),
		}
		for k, v := range repoErr.GetContext() {
			fields = append(fields, k, v)
		}
		for k, v := range context {
			fields = append(fields, k, v)
		}
		logger.Error(fmt.Sprintf("Repository error: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}
	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogRepositoryOperation logs completed operations with their duration
func LogRepositoryOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}
	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}

// LogError is an alias for LogRepositoryError
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	LogRepositoryError(logger, err, operation, context)
}

// LogOperation is an alias for LogRepositoryOperation
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	LogRepositoryOperation(logger, operation, duration, context)
}
