package telemetry

import (
	"log/slog"
	"os"
)

// InitLogger installs a JSON slog handler as the process default.
// All packages log through slog so every line carries structured fields.
func InitLogger(service string) {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler).With(slog.String("service", service))
	slog.SetDefault(logger)
}
