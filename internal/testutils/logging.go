package testutils

import "sync"

// TestingT is a minimal interface that matches the methods we need from testing.T
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap safely converts a slice of alternating key-value pairs to a map.
// It performs safe type assertions and handles malformed entries gracefully.
// This is commonly used in logging tests to validate structured log fields.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	fieldsMap := make(map[string]any)

	for i := 0; i < len(fields); i += 2 {
		// Ensure we have both key and value
		if i+1 >= len(fields) {
			t.Errorf("Malformed fields slice: missing value for key at index %d", i)
			continue
		}

		// Safe type assertion for the key
		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("Malformed fields slice: key at index %d is not a string, got %T", i, fields[i])
			continue
		}

		// Store the key-value pair
		fieldsMap[key] = fields[i+1]
	}

	return fieldsMap
}

// LogCall is one captured call on a RecordingLogger
type LogCall struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger captures log calls for assertions. It satisfies logging.Logger.
type RecordingLogger struct {
	mu    sync.Mutex
	calls []LogCall
}

func (l *RecordingLogger) record(level, msg string, fields []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, LogCall{Level: level, Msg: msg, Fields: fields})
}

func (l *RecordingLogger) Debug(msg string, fields ...any) { l.record("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...any)  { l.record("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...any)  { l.record("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...any) { l.record("error", msg, fields) }

// Calls returns the captured calls at the given level, or all calls when level is empty
func (l *RecordingLogger) Calls(level string) []LogCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogCall, 0, len(l.calls))
	for _, c := range l.calls {
		if level == "" || c.Level == level {
			out = append(out, c)
		}
	}
	return out
}
