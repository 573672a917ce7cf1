package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the application logger. Production always logs JSON;
// elsewhere LOG_FORMAT picks between json and human-readable text output.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg.IsProduction() || (cfg != nil && cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
