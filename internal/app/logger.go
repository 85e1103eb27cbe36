package app

import (
	"io"
	"log/slog"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
//
// The numeric verbosity follows the classic convention: 10 debug, 20 info,
// 30 warning, 40 error. Anything in between rounds up to the next level.
func newLogger(verbosity int, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch {
	case verbosity <= 10:
		level = slog.LevelDebug
	case verbosity <= 20:
		level = slog.LevelInfo
	case verbosity <= 30:
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
