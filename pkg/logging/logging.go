// Package logging builds the root slog.Logger from configuration.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w in the configured format. The pretty
// format is meant for terminals; text and json suit log collectors.
func New(cfg *Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()

	switch cfg.Format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	case FormatPretty:
		handler := log.NewWithOptions(w, log.Options{
			Level:           log.Level(level),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.000",
			Prefix:          "stamper",
		})
		return slog.New(handler)
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
