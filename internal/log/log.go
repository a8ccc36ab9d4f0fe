// Package log owns the process-wide structured logger. Other packages call
// the package-level functions or pass Logger() down; Setup is called once
// from the command entrypoint.
package log

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Options selects where log records go and how much gets through.
type Options struct {
	Level  string // debug, info, warn, error
	File   string // when set, log to this file instead of stderr
	Source bool   // annotate records with file:line
}

var logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
	NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
}))

// Setup replaces the default logger. With a file configured records go
// there uncolored; otherwise they go to stderr, colored when stderr is a
// terminal.
func Setup(opts Options) (*slog.Logger, error) {
	tintOpts := &tint.Options{
		Level:      parseLevel(opts.Level),
		AddSource:  opts.Source,
		TimeFormat: time.TimeOnly,
	}

	out := os.Stderr
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		out = file
		tintOpts.NoColor = true
		tintOpts.TimeFormat = time.DateTime
	} else {
		tintOpts.NoColor = !isatty.IsTerminal(out.Fd())
	}

	logger = slog.New(tint.NewHandler(out, tintOpts))
	slog.SetDefault(logger)
	return logger, nil
}

// Logger returns the current process logger.
func Logger() *slog.Logger { return logger }

// With returns a child logger carrying the given attributes.
func With(args ...any) *slog.Logger { return logger.With(args...) }

func Debug(msg string, args ...any) { logger.Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Error(msg, args...) }

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
