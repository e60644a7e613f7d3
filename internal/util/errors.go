package util

import (
	"fmt"
	"log/slog"
	"runtime"
)

// ZoonError adds structured context and a captured stack trace to an
// error. Core Encode/Decode never return one (spec.md §6 says they
// are total); it is only used by the adapter/config layers that touch
// files, databases, or validate configuration.
type ZoonError struct {
	OriginalErr error
	Message     string
	Stack       string
	Attrs       []slog.Attr
}

func (e *ZoonError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
	}
	return e.Message
}

func (e *ZoonError) Unwrap() error {
	return e.OriginalErr
}

const maxStackLength = 8192

// NewError creates a new ZoonError without an underlying cause.
func NewError(message string, attrs ...slog.Attr) *ZoonError {
	return newZoonError(nil, message, attrs...)
}

// WrapError creates a new ZoonError wrapping err.
func WrapError(err error, message string, attrs ...slog.Attr) *ZoonError {
	return newZoonError(err, message, attrs...)
}

func newZoonError(originalErr error, message string, attrs ...slog.Attr) *ZoonError {
	buf := make([]byte, maxStackLength)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	if ze, ok := originalErr.(*ZoonError); ok {
		combinedAttrs := append(ze.Attrs, attrs...)
		newMessage := message
		if ze.Message != "" {
			newMessage = fmt.Sprintf("%s: %s", message, ze.Message)
		}
		return &ZoonError{
			OriginalErr: ze.OriginalErr,
			Message:     newMessage,
			Stack:       ze.Stack,
			Attrs:       combinedAttrs,
		}
	}

	return &ZoonError{
		OriginalErr: originalErr,
		Message:     message,
		Stack:       stack,
		Attrs:       attrs,
	}
}

// LogError logs a ZoonError with its structured context and stack
// trace; non-ZoonError values log with their plain message.
func LogError(logger *slog.Logger, err error) {
	if err == nil {
		return
	}

	var ze *ZoonError
	if asZe, ok := err.(*ZoonError); ok {
		ze = asZe
	} else if asWrapper, ok := err.(interface{ Unwrap() error }); ok {
		if unwrapZe, ok := asWrapper.Unwrap().(*ZoonError); ok {
			ze = unwrapZe
		}
	}

	if ze != nil {
		logAttrs := []any{slog.String("error_message", ze.Message)}
		if ze.OriginalErr != nil {
			logAttrs = append(logAttrs, slog.String("original_error", ze.OriginalErr.Error()))
		}
		logAttrs = append(logAttrs, slog.String("stack_trace", ze.Stack))
		for _, attr := range ze.Attrs {
			logAttrs = append(logAttrs, attr)
		}
		logger.Error("An error occurred", logAttrs...)
		return
	}
	logger.Error("An error occurred", slog.String("error", err.Error()))
}
