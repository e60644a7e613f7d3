package util

import (
	"io"
	"log/slog"
)

// Logger is the package-level default logger. Unlike the service this
// package was lifted from, this module is a codec library: importing
// it must have no observable side effect, so the default logger
// discards everything. Callers that want the schema-inference trace
// described in SPEC_FULL.md §2.1 call SetLogger with a real handler.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger replaces the package-level default logger, e.g. with
// slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level:
// slog.LevelDebug})) to see schema-inference diagnostics.
func SetLogger(l *slog.Logger) {
	if l == nil {
		Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	Logger = l
}
