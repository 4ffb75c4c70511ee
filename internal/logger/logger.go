// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting, enriches records with tracing
// values from the context, and can fan out to a rotating log file and
// Better Stack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogbetterstack "github.com/samber/slog-betterstack"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger

	closers []func(context.Context) error
}

// Options selects the optional log sinks.
type Options struct {
	// FilePath enables a size-rotated JSON log file when non-empty.
	FilePath string
	// BetterStackToken enables remote shipping when non-empty.
	BetterStackToken string
	// Async configures the buffer in front of Better Stack.
	Async AsyncOptions
}

// Log file rotation: 1 MB per file, 3 backups.
const (
	fileMaxSizeMB  = 1
	fileMaxBackups = 3
)

// New creates a new logger instance with JSON formatting on stdout.
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	return &Logger{Logger: slog.New(NewContextHandler(jsonHandler(w, ParseLevel(level))))}
}

// NewWithOptions creates a logger that writes to stdout and to every sink
// enabled in opts. Call Shutdown to flush remote logs and close the file.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	lvl := ParseLevel(level)
	handlers := []slog.Handler{jsonHandler(w, lvl)}
	var closers []func(context.Context) error

	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
		}
		handlers = append(handlers, jsonHandler(rotator, lvl))
		closers = append(closers, func(context.Context) error { return rotator.Close() })
	}

	if opts.BetterStackToken != "" {
		remote := slogbetterstack.Option{
			Level: lvl,
			Token: opts.BetterStackToken,
		}.NewBetterstackHandler()
		async := NewAsyncHandler(remote, opts.Async)
		handlers = append(handlers, async)
		closers = append(closers, async.Shutdown)
	}

	var root slog.Handler = handlers[0]
	if len(handlers) > 1 {
		root = NewFanoutHandler(handlers...)
	}

	return &Logger{
		Logger:  slog.New(NewContextHandler(root)),
		closers: closers,
	}
}

// Shutdown flushes asynchronous sinks and closes the log file.
// Closers run in reverse order of creation.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil {
		return nil
	}
	var firstErr error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}

// ParseLevel maps a case-insensitive level name to a slog level.
// Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func jsonHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renameAttr,
	})
}

// renameAttr emits timestamp/level/message keys and lowercase level values.
func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		a.Key = "level"
		lvl := strings.ToLower(a.Value.String())
		if lvl == "warn" {
			lvl = "warning"
		}
		a.Value = slog.StringValue(lvl)
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return l.derive(l.With(args...))
}

// derived loggers share the parent's sinks but never own them.
func (l *Logger) derive(s *slog.Logger) *Logger {
	return &Logger{Logger: s}
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}
