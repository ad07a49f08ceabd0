// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewLogger returns a logger writing to w at the given level.
// FormatJSON uses slog's JSON handler; anything else uses charmbracelet/log
// as the slog handler for human-readable output.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           charmlog.Level(level),
	})
	return slog.New(handler)
}
