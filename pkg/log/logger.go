// Package log provides structured logging for the forecasting pipeline.
//
// Logging goes through Go's log/slog with a JSON handler; errors built by
// pkg/errors carry cockroachdb/errors stack traces, which the handler in
// this package extracts into a dedicated attribute.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default pipeline logger at the given level.
// Unknown level strings fall back to info.
func Setup(loglevel string) {
	ops := slog.HandlerOptions{
		Level: ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel maps a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
