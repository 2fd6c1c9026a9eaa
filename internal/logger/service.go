package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Initialize installs a JSON logger writing to w as the slog default.
func Initialize(level slog.Level, w io.Writer) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(logger)
}

func Named(name string) *slog.Logger {
	logger := slog.Default()
	if logger == nil {
		return nil
	}

	return logger.With("name", name)
}

// ParseLevel accepts debug, info, warn and error (any case).
func ParseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': %w", value, err)
	}
	return level, nil
}
