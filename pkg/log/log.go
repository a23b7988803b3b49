package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// logger is the global logger instance
	logger atomic.Pointer[slog.Logger]
	// level controls the log level
	level = new(slog.LevelVar)

	mu     sync.Mutex
	out    io.Writer = os.Stderr
	format           = FormatText
	file   *os.File
)

// Format selects the handler used to render records.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func init() {
	// Default to warning level (quiet mode)
	level.Set(slog.LevelWarn)
	rebuild()
}

func rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == FormatJSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	logger.Store(slog.New(h))
}

// SetVerbose enables debug logging
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}
}

// SetQuiet disables all logging except errors
func SetQuiet(quiet bool) {
	if quiet {
		level.Set(slog.LevelError)
	}
}

// SetFormat switches between "text" and "json" records.
func SetFormat(f string) error {
	switch Format(strings.ToLower(f)) {
	case FormatText, "":
		f = string(FormatText)
	case FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q (use text or json)", f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = Format(strings.ToLower(f))
	rebuild()
	return nil
}

// SetOutput changes the log output destination
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	rebuild()
}

// ToFile appends log records to path, creating its directory. The returned
// func restores stderr and closes the file.
func ToFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	mu.Lock()
	prev := file
	file = f
	out = f
	rebuild()
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if file == f {
			file = nil
			out = os.Stderr
			rebuild()
		}
		_ = f.Close()
	}, nil
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return logger.Load().With(args...)
}
