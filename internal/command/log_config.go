package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joeycumines/go-btcore/internal/config"
)

// logConfig holds the resolved logging setup of a command.
type logConfig struct {
	level   slog.Level
	json    bool
	logFile io.WriteCloser // nil if logging to stderr
}

// resolveLogConfig resolves logging from flags, then config (including the
// schema's env vars), then defaults. The caller must Close() logFile when
// it is non-nil.
func resolveLogConfig(flagPath, flagLevel string, cfg *config.Config) (logConfig, error) {
	schema := config.DefaultSchema()
	var lc logConfig

	resolveStr := func(key string) string {
		if cfg == nil {
			return ""
		}
		return schema.Resolve(cfg, key)
	}

	// Level: flag → config → "info".
	levelStr := flagLevel
	if levelStr == "" {
		levelStr = resolveStr(config.KeyLogLevel)
	}
	level, err := parseLogLevel(levelStr)
	if err != nil {
		return lc, err
	}
	lc.level = level

	switch format := strings.ToLower(resolveStr(config.KeyLogFormat)); format {
	case "", "text":
	case "json":
		lc.json = true
	default:
		return lc, fmt.Errorf("invalid log format: %s", format)
	}

	logPath := flagPath
	if logPath == "" {
		logPath = resolveStr(config.KeyLogFile)
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return lc, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		lc.logFile = f
		// Files are always written as JSON lines.
		lc.json = true
	}

	return lc, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// logger builds the slog.Logger described by lc, writing to stderr unless a
// log file is open.
func (lc logConfig) logger(stderr io.Writer) *slog.Logger {
	w := stderr
	if lc.logFile != nil {
		w = lc.logFile
	}
	opts := &slog.HandlerOptions{Level: lc.level}
	if lc.json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
