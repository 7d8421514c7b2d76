// Package log provides the engine's structured, leveled logger. It is kept
// deliberately separate from the audit log (internal/audit): this is
// operational diagnostics for humans tailing a file; the audit log is a
// durable, append-only record of mutations.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	logger  *slog.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	enabled bool
)

// Options configures rotation of the operational log file.
type Options struct {
	Path       string // e.g. <store>/cleo.log; empty disables file logging
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Verbose    bool
}

// Init wires the logger to a rotating file sink. Safe to call once per
// process; subsequent calls replace the sink (used by tests).
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = io.Discard
	enabled = opts.Path != ""
	if enabled {
		w = &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    firstPositive(opts.MaxSizeMB, 10),
			MaxAge:     firstPositive(opts.MaxAgeDays, 28),
			MaxBackups: firstPositive(opts.MaxBackups, 5),
			Compress:   true,
		}
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

func firstPositive(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// L returns the process-wide logger. Threaded explicitly through call sites
// that need it rather than read as a hidden global where avoidable (§9).
func L() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Debugf writes a debug-level line, matching the teacher's terse debug-log
// call sites, also mirrored to stderr when CLEO_DEBUG is set (parity with
// the teacher's ad hoc stderr debug helper).
func Debugf(format string, args ...any) {
	L().Debug(sprintf(format, args...))
	if os.Getenv("CLEO_DEBUG") != "" {
		os.Stderr.WriteString(sprintf(format, args...) + "\n")
	}
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
