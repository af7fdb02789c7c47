package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output everywhere except development,
// where the text handler is easier to read.
func New(env string) *slog.Logger {
	if env == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
