package main

import (
	"log/slog"
	"os"
	"strings"
)

// setupLogger builds the local slog sink. The returned LevelVar is shared
// with the bus-mirroring logger so runtime level changes apply to both.
func setupLogger(level, format string) (*slog.Logger, *slog.LevelVar) {
	levelVar := new(slog.LevelVar)

	switch strings.ToLower(level) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info":
		levelVar.Set(slog.LevelInfo)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: strings.ToLower(level) == "debug",
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With(
		"service", appName,
		"version", Version,
		"pid", os.Getpid(),
	)

	return logger, levelVar
}
