package telemetry

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Output always goes to stderr: stdout
// is reserved for the MCP stdio transport, matching the stdout/stderr
// separation in cmd/workspace-governor/cmd/serve.go.
func NewLogger(level string, debug bool) *slog.Logger {
	logLevel := ParseLogLevel(level)
	if debug {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// ParseLogLevel converts a string log level to slog.Level, defaulting to
// Info for unrecognized values.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
