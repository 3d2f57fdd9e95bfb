package logging

import (
	"errors"
	"strings"
	"testing"
	"time"

	"wellsync/internal/testutils"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Mock RepositoryError for testing
type mockRepositoryError struct {
	message   string
	code      string
	retryable bool
	context   map[string]string
	timestamp time.Time
}

func (m *mockRepositoryError) Error() string { return m.message }
func (m *mockRepositoryError) GetCode() string { return m.code }
func (m *mockRepositoryError) IsRetryable() bool { return m.retryable }
func (m *mockRepositoryError) GetContext() map[string]string { return m.context }
func (m *mockRepositoryError) GetTimestamp() time.Time { return m.timestamp }

func newObservedLogger(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewFromZap(zap.New(core)), logs
}

func TestNewZapLogger(t *testing.T) {
	logger, err := NewZapLogger(Options{Level: "debug", Environment: "test"})
	if err != nil {
		t.Fatalf("NewZapLogger() unexpected error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewZapLogger() returned nil")
	}

	if _, err := NewZapLogger(Options{Level: "loud"}); err == nil {
		t.Error("NewZapLogger() expected error for invalid level")
	}
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	if logger == nil {
		t.Fatal("NewDefaultLogger() returned nil")
	}
	if _, ok := logger.(*ZapLogger); !ok {
		t.Errorf("NewDefaultLogger() returned %T, expected *ZapLogger", logger)
	}
}

func TestZapLogger_LogLevels(t *testing.T) {
	logger, logs := newObservedLogger(zapcore.DebugLevel)

	tests := []struct {
		name           string
		logFunc        func(string, ...interface{})
		message        string
		fields         []interface{}
		level          zapcore.Level
		expectedFields map[string]interface{}
	}{
		{
			name:           "Debug",
			logFunc:        logger.Debug,
			message:        "debug message",
			fields:         []interface{}{"key", "value"},
			level:          zapcore.DebugLevel,
			expectedFields: map[string]interface{}{"key": "value"},
		},
		{
			name:           "Info",
			logFunc:        logger.Info,
			message:        "info message",
			fields:         []interface{}{"count", 42},
			level:          zapcore.InfoLevel,
			expectedFields: map[string]interface{}{"count": int64(42)},
		},
		{
			name:           "Warn",
			logFunc:        logger.Warn,
			message:        "warn message",
			fields:         []interface{}{},
			level:          zapcore.WarnLevel,
			expectedFields: map[string]interface{}{},
		},
		{
			name:           "Error",
			logFunc:        logger.Error,
			message:        "error message",
			fields:         []interface{}{"error", "test error"},
			level:          zapcore.ErrorLevel,
			expectedFields: map[string]interface{}{"error": "test error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			tt.logFunc(tt.message, tt.fields...)

			entries := logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 log entry, got %d", len(entries))
			}
			entry := entries[0]

			if entry.Level != tt.level {
				t.Errorf("Expected level %v, got %v", tt.level, entry.Level)
			}
			if entry.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry.Message)
			}

			fields := entry.ContextMap()
			for key, expected := range tt.expectedFields {
				actual, ok := fields[key]
				if !ok {
					t.Errorf("Expected field %q to exist", key)
					continue
				}
				if actual != expected {
					t.Errorf("Expected field %q to be %v (%T), got %v (%T)", key, expected, expected, actual, actual)
				}
			}
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	tests := []struct {
		name     string
		input    []interface{}
		expected []interface{}
	}{
		{"empty", nil, []interface{}{}},
		{"pairs", []interface{}{"a", 1, "b", 2}, []interface{}{"a", 1, "b", 2}},
		{"odd trailing key", []interface{}{"a", 1, "orphan"}, []interface{}{"a", 1, "field_1", "orphan"}},
		{"non-string key", []interface{}{42, "v"}, []interface{}{"field_0", 42, "field_0_value", "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeFields(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("normalizeFields() len = %d, want %d (%v)", len(got), len(tt.expected), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("normalizeFields()[%d] = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLogRepositoryError(t *testing.T) {
	t.Run("classified error", func(t *testing.T) {
		logger := &testutils.RecordingLogger{}
		err := &mockRepositoryError{
			message:   "database is locked",
			code:      "BUSY",
			retryable: true,
			context:   map[string]string{"table": "app_usage_samples"},
			timestamp: time.Now(),
		}

		LogRepositoryError(logger, err, "UpsertSamples", map[string]interface{}{"date": "2024-03-04"})

		calls := logger.Calls("error")
		if len(calls) != 1 {
			t.Fatalf("Expected 1 error call, got %d", len(calls))
		}
		if !strings.HasPrefix(calls[0].Msg, "Repository error:") {
			t.Errorf("Unexpected message %q", calls[0].Msg)
		}

		fields := testutils.FieldsToMap(t, calls[0].Fields)
		if fields["operation"] != "UpsertSamples" {
			t.Errorf("operation = %v, want UpsertSamples", fields["operation"])
		}
		if fields["error_code"] != "BUSY" {
			t.Errorf("error_code = %v, want BUSY", fields["error_code"])
		}
		if fields["retryable"] != true {
			t.Errorf("retryable = %v, want true", fields["retryable"])
		}
		if fields["table"] != "app_usage_samples" {
			t.Errorf("table = %v, want app_usage_samples", fields["table"])
		}
		if fields["date"] != "2024-03-04" {
			t.Errorf("date = %v, want 2024-03-04", fields["date"])
		}
	})

	t.Run("plain error", func(t *testing.T) {
		logger := &testutils.RecordingLogger{}
		LogRepositoryError(logger, errors.New("boom"), "FetchRawUsageStats", nil)

		calls := logger.Calls("error")
		if len(calls) != 1 {
			t.Fatalf("Expected 1 error call, got %d", len(calls))
		}
		if calls[0].Msg != "Unexpected error: boom" {
			t.Errorf("Unexpected message %q", calls[0].Msg)
		}
		fields := testutils.FieldsToMap(t, calls[0].Fields)
		if fields["error_type"] != "*errors.errorString" {
			t.Errorf("error_type = %v", fields["error_type"])
		}
	})
}

func TestLogRepositoryOperation(t *testing.T) {
	logger := &testutils.RecordingLogger{}
	LogOperation(logger, "SaveState", 1500*time.Millisecond, map[string]interface{}{"rows": 5})

	calls := logger.Calls("info")
	if len(calls) != 1 {
		t.Fatalf("Expected 1 info call, got %d", len(calls))
	}
	fields := testutils.FieldsToMap(t, calls[0].Fields)
	if fields["duration_ms"] != int64(1500) {
		t.Errorf("duration_ms = %v, want 1500", fields["duration_ms"])
	}
	if fields["rows"] != 5 {
		t.Errorf("rows = %v, want 5", fields["rows"])
	}
}
