package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the daemon log destination. With File empty, output goes
// to stderr only; with File set, a rotating file is written as well.
type Config struct {
	Level      string `toml:"level" mapstructure:"level"` // debug,info,warn,error
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// New builds a slog.Logger from the config. The console gets the colored
// text handler; the optional file gets plain text through lumberjack.
func New(c Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}

	var w io.Writer = os.Stderr
	if c.File != "" {
		rotating := &lj.Logger{
			Filename:   c.File,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
		w = io.MultiWriter(os.Stderr, rotating)
	}
	return slog.New(NewColorTextHandler(w, opts))
}

// Install makes the configured logger the process default, so package-level
// slog calls across the supervisor pick it up.
func Install(c Config) *slog.Logger {
	l := New(c)
	slog.SetDefault(l)
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
