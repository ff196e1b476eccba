// Package log provides structured logging for the simulator. It wraps
// Go's log/slog with subsystem child loggers and attribute helpers for
// the values simulator logs are made of: fixed-width simulated
// addresses and instruction words. Logging stays off the
// fetch-decode-execute hot path; subsystems log lifecycle events only.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger and remembers the subsystem path it logs
// under, so nested components compose readable module names:
// Module("hart").Module("csr") logs module=hart/csr.
type Logger struct {
	base   *slog.Logger // without the module attribute
	inner  *slog.Logger
	module string
}

// defaultLogger is the process-wide logger configured by the front end.
var defaultLogger *Logger

func init() {
	defaultLogger = New(os.Stderr, slog.LevelInfo)
}

// New creates a Logger that writes JSON to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	return &Logger{base: l, inner: l}
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler.
// This is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	l := slog.New(h)
	return &Logger{base: l, inner: l}
}

// SetDefault replaces the process-wide default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current process-wide default logger.
func Default() *Logger {
	return defaultLogger
}

// VerbosityToLevel maps a 0-4 command-line verbosity to a slog level:
// 0 silences everything below Error, 4 enables Debug.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Module returns a child logger for a subsystem. Nested calls chain the
// names with a slash.
func (l *Logger) Module(name string) *Logger {
	if l.module != "" {
		name = l.module + "/" + name
	}
	return &Logger{
		base:   l.base,
		inner:  l.base.With(slog.String("module", name)),
		module: name,
	}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		base:   l.base.With(args...),
		inner:  l.inner.With(args...),
		module: l.module,
	}
}

// ModuleName returns the subsystem path this logger logs under, or ""
// for the root logger.
func (l *Logger) ModuleName() string { return l.module }

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// Addr formats a simulated address as a fixed-width hex attribute. The
// width follows the hart's register width (xlen in bits) so RV32 and
// RV64 runs produce aligned, comparable logs.
func Addr(key string, xlen uint, v uint64) slog.Attr {
	return slog.String(key, fmt.Sprintf("0x%0*x", int(xlen/4), v))
}

// InstWord formats an instruction word the way trace records do: four
// hex digits for a compressed code (low two bits not 11), eight for a
// full-width word.
func InstWord(key string, inst uint32) slog.Attr {
	if inst&0x3 != 0x3 {
		return slog.String(key, fmt.Sprintf("%04x", uint16(inst)))
	}
	return slog.String(key, fmt.Sprintf("%08x", inst))
}
