// Package logging configures colored structured logging with tint.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs a tint handler on stderr as the default slog logger.
func Setup(level string, dev bool) {
	slog.SetDefault(New(os.Stderr, ParseLevel(level), dev))
}

// New builds a tint logger. Development output carries source locations and
// colors; production output is plain.
func New(w io.Writer, level slog.Level, dev bool) *slog.Logger {
	format := time.Kitchen
	if !dev {
		format = time.RFC3339
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: format,
		AddSource:  dev,
		NoColor:    !dev,
	}))
}

// ParseLevel maps debug, info, warn and error to slog levels (default: info).
func ParseLevel(s string) slog.Level {
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
