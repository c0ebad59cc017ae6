package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. JSON output is meant for deployed
// environments; the pretty text handler is the local default.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})).
			With(slog.String("app", "feedlot-ap"))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
