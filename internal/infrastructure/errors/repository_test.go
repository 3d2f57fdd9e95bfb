package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"nil", nil, ErrCodeUnknown},
		{"no rows", sql.ErrNoRows, ErrCodeNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), ErrCodeNotFound},
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, ErrCodeBusy},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrCodeDuplicate},
		{"message locked", errors.New("database is locked"), ErrCodeBusy},
		{"message missing table", errors.New("no such table: app_usage_samples"), ErrCodeSchema},
		{"message disk", errors.New("write: no space left on device"), ErrCodeDiskSpace},
		{"unclassified", errors.New("boom"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.expected {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	if WrapDatabaseError("op", nil) != nil {
		t.Error("WrapDatabaseError(nil) should be nil")
	}

	err := WrapDatabaseErrorWithContext("LoadState", sql.ErrNoRows, map[string]string{"key": "achievements"})
	if !IsNotFound(err) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	var repoErr *RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatal("expected *RepositoryError")
	}
	if repoErr.Context["key"] != "achievements" {
		t.Errorf("context key = %q", repoErr.Context["key"])
	}
}

func TestHandlers(t *testing.T) {
	if err := HandleNotFound("LoadState", "wellness_state", "achievements"); !IsNotFound(err) {
		t.Errorf("HandleNotFound() = %v", err)
	}
	if err := HandleValidationError("UpsertSamples", "date", "", "zero date"); !HasCode(err, ErrCodeValidation) {
		t.Errorf("HandleValidationError() = %v", err)
	}
	if err := HandleConnectionError("Health", "database not connected"); !HasCode(err, ErrCodeConnection) {
		t.Errorf("HandleConnectionError() = %v", err)
	} else if !IsRetryable(err) {
		t.Error("connection errors should be retryable")
	}
}
