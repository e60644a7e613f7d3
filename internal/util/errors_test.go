package util

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewErrorMessage(t *testing.T) {
	err := NewError("something failed")
	if err.Error() != "something failed" {
		t.Errorf("Error() = %q, want %q", err.Error(), "something failed")
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil Unwrap for a causeless error, got %v", err.Unwrap())
	}
}

func TestWrapErrorIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(cause, "failed to write file")
	want := "failed to write file: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the wrapped cause")
	}
}

func TestWrapErrorOfZoonErrorMergesAttrsAndMessage(t *testing.T) {
	inner := WrapError(errors.New("root cause"), "inner failure", slog.String("a", "1"))
	outer := WrapError(inner, "outer failure", slog.String("b", "2"))

	if outer.Message != "outer failure: inner failure" {
		t.Errorf("expected merged message, got %q", outer.Message)
	}
	if len(outer.Attrs) != 2 {
		t.Errorf("expected attrs from both layers, got %v", outer.Attrs)
	}
	if outer.OriginalErr == nil || outer.OriginalErr.Error() != "root cause" {
		t.Errorf("expected the original non-ZoonError cause preserved, got %v", outer.OriginalErr)
	}
}

func TestLogErrorNilIsNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	LogError(logger, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for a nil error, got %q", buf.String())
	}
}

func TestLogErrorZoonErrorIncludesStackAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	err := WrapError(errors.New("boom"), "op failed", slog.String("key", "value"))
	LogError(logger, err)
	out := buf.String()
	if !strings.Contains(out, "op failed") || !strings.Contains(out, "boom") || !strings.Contains(out, "key=value") {
		t.Errorf("expected structured error fields in log output, got %q", out)
	}
}

func TestLogErrorPlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	LogError(logger, errors.New("plain failure"))
	if !strings.Contains(buf.String(), "plain failure") {
		t.Errorf("expected plain error message logged, got %q", buf.String())
	}
}
