// Package logger provides a small structured logging facade over slog.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Logger defines the logging interface used across the service.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	// Named returns a logger scoped under the given group name.
	Named(name string) Logger
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Field constructors.
func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field     { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }
func Error(err error) Field                 { return Field{Key: "error", Value: err} }

// slogLogger implements Logger on top of slog.
type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Named(name string) Logger {
	return &slogLogger{l: s.l.WithGroup(name)}
}

func (s *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelDebug, msg, attrs(fields)...)
}

func (s *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelInfo, msg, attrs(fields)...)
}

func (s *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelWarn, msg, attrs(fields)...)
}

func (s *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelError, msg, attrs(fields)...)
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, len(fields))
	for i, f := range fields {
		out[i] = slog.Any(f.Key, f.Value)
	}
	return out
}

var (
	global   Logger
	levelVar slog.LevelVar
)

// Init installs the global logger writing text to stdout at info level.
func Init() error {
	levelVar.Set(slog.LevelInfo)
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &levelVar})
	global = &slogLogger{l: slog.New(h)}
	return nil
}

// Get returns the global logger. Init must have been called.
func Get() Logger {
	if global == nil {
		panic("logger not initialized; call logger.Init first")
	}
	return global
}

// Named returns a named logger derived from the global one.
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered entries. slog does not buffer; kept for
// lifecycle symmetry in main.
func Sync() error {
	return nil
}

// SetLevel updates the global handler level.
func SetLevel(level slog.Level) { levelVar.Set(level) }

// SetLevelString parses and applies a level name. Accepts debug, info,
// warn/warning, error (case-insensitive); empty means info.
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "", "info":
		SetLevel(slog.LevelInfo)
	case "warn", "warning":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
