// Package log initializes the process-wide slog logger from a
// config.LogConfig: stdout by default, or a rotated file via
// gopkg.in/natefinch/lumberjack.v2 when configured.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/elementio/elementio/internal/config"
)

// Init parses cfg, builds the writer and level it describes, and
// installs the result as slog's default logger. Call once at startup,
// after config.Load and before the graph builder or supervisor log
// anything.
func Init(cfg config.LogConfig) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}

	writer, err := newWriter(cfg)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func newWriter(cfg config.LogConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		return os.Stdout, nil
	case "file":
		if cfg.File == "" {
			return nil, fmt.Errorf("output is file but no file path configured")
		}
		return &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported log output %q (must be stdout or file)", cfg.Output)
	}
}

// parseLevel accepts the same spelling DC_LOG and log.level share
// (trace is treated as debug; slog has no finer level).
func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace", "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", levelStr)
	}
}
