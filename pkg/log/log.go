// Package log configures the process-wide structured logger.
package log

import (
	"log/slog"
	"os"
)

// Setup installs a text handler at the given level as the process
// default and returns it. Unknown level names fall back to info, so a
// bad LOG_LEVEL never silences the process.
func Setup(logLevel string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return logger
}

// WithModule tags the process logger with the module attribute the
// rest of the codebase filters on.
func WithModule(module string) *slog.Logger {
	return slog.Default().With("module", module)
}
