package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"casper-learning/internal/config"
)

func setupLogging(level, format string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file and sets up logging. A missing file falls
// back to the defaults.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
		setupLogging(cfg.Log.Level, cfg.Log.Format)
		slog.Warn("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	setupLogging(cfg.Log.Level, cfg.Log.Format)
	slog.Debug("loaded config file", "path", path)
	return cfg, nil
}
