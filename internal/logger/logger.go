// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
)

// Options selects the handler and verbosity for Setup.
type Options struct {
	// JSON switches from the human-readable text handler to JSON output.
	JSON bool
	// Debug lowers the level from Info to Debug.
	Debug bool
}

// Setup installs the default logger and returns it. All components receive
// the logger by injection; the default is set as well so stray slog calls
// end up in the same stream.
func Setup(opts Options) *slog.Logger {
	hopts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if opts.Debug {
		hopts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, hopts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, hopts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
