// Package logging configures the process-wide slog default.
package logging

import (
	"log/slog"
	"os"
)

// Init installs the default logger. Quiet runs log warnings and above;
// verbose runs enable debug output with source locations.
func Init(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))
}
