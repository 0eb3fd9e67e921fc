package testutil

import "log/slog"

// NopLogger returns a logger whose output goes nowhere. Every engine
// component demands a logger; tests rarely want the noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
