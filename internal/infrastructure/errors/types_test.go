package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeUnknown, "UNKNOWN"},
		{ErrCodeNotFound, "NOT_FOUND"},
		{ErrCodeBusy, "BUSY"},
		{ErrCodeSchema, "SCHEMA"},
		{ErrCodeSourceUnavailable, "SOURCE_UNAVAILABLE"},
		{ErrorCode(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.expected {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.expected)
		}
	}
}

func TestRepositoryError_Error(t *testing.T) {
	err := NewRepositoryErrorWithContext("FetchRawUsageStats", errors.New("denied"), ErrCodeSourceUnavailable, map[string]string{
		"reason": "permission",
		"days":   "7",
	})

	want := "denied [op=FetchRawUsageStats code=SOURCE_UNAVAILABLE days=7 reason=permission]"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var nilErr *RepositoryError
	if got := nilErr.Error(); got != "repository error" {
		t.Errorf("nil Error() = %q", got)
	}
}

func TestRepositoryError_ContextIsCopied(t *testing.T) {
	ctx := map[string]string{"date": "2024-03-04"}
	err := NewRepositoryErrorWithContext("op", nil, ErrCodeValidation, ctx)
	ctx["date"] = "mutated"

	if err.GetContext()["date"] != "2024-03-04" {
		t.Errorf("context was not copied, got %q", err.GetContext()["date"])
	}
}

func TestRepositoryError_IsAndUnwrap(t *testing.T) {
	err := NewRepositoryError("GetState", sql.ErrNoRows, ErrCodeNotFound)
	wrapped := fmt.Errorf("load: %w", err)

	if !errors.Is(wrapped, sql.ErrNoRows) {
		t.Error("errors.Is should find sql.ErrNoRows through the wrapper")
	}
	if !errors.Is(wrapped, &RepositoryError{Code: ErrCodeNotFound}) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(wrapped, &RepositoryError{Code: ErrCodeBusy}) {
		t.Error("errors.Is should not match a different code")
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() = false, want true")
	}
}

func TestIsRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		err       error
		retryable bool
	}{
		{"busy", ErrCodeBusy, errors.New("database is locked"), true},
		{"timeout", ErrCodeTimeout, context.DeadlineExceeded, true},
		{"not found", ErrCodeNotFound, sql.ErrNoRows, false},
		{"disk space", ErrCodeDiskSpace, errors.New("disk full"), false},
		{"source unavailable", ErrCodeSourceUnavailable, errors.New("denied"), false},
		{"unknown temporary", ErrCodeUnknown, errors.New("temporary failure"), true},
		{"unknown plain", ErrCodeUnknown, errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRepositoryError("op", tt.err, tt.code)
			if err.IsRetryable() != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", err.IsRetryable(), tt.retryable)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("package IsRetryable() = %v, want %v", IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestNewSourceError(t *testing.T) {
	err := NewSourceError("FetchRawUsageStats", errors.New("platform unsupported"), "unsupported")
	if !IsSourceUnavailable(err) {
		t.Fatal("IsSourceUnavailable() = false, want true")
	}
	if err.GetContext()["reason"] != "unsupported" {
		t.Errorf("reason = %q, want unsupported", err.GetContext()["reason"])
	}
	if IsSourceUnavailable(errors.New("plain")) {
		t.Error("IsSourceUnavailable() should be false for plain errors")
	}
}

func TestCause(t *testing.T) {
	busy := NewRepositoryError("GetSamplesInRange", errors.New("database is locked"), ErrCodeBusy)
	wrapped := NewSourceError("FetchRawUsageStats", busy, "error")

	if got := Cause(wrapped); got != busy {
		t.Errorf("Cause() = %v, want the busy error", got)
	}
	if !IsBusy(Cause(wrapped)) || IsBusy(wrapped) {
		t.Error("busy classification should only be visible on the cause")
	}

	plain := errors.New("plain")
	if Cause(plain) != plain {
		t.Error("Cause() should return plain errors unchanged")
	}
}
