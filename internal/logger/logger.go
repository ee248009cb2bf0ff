// Package logger is the slog wrapper every package logs through.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	slogLogger *slog.Logger
)

// Options configure the global logger.
type Options struct {
	// Format is "text" (default) or "json".
	Format string
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
}

// Init replaces the global logger. Output goes to w, or stdout when w is nil.
func Init(w io.Writer, opts Options) {
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	mu.Lock()
	slogLogger = slog.New(&contextHandler{handler})
	mu.Unlock()
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func current() *slog.Logger {
	mu.RLock()
	l := slogLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(os.Stdout, Options{})
	mu.RLock()
	defer mu.RUnlock()
	return slogLogger
}

// Slog exposes the global logger for libraries that take a *slog.Logger.
func Slog() *slog.Logger { return current() }

func log(ctx context.Context, level slog.Level, msg string, a []any) {
	l := current()
	if !l.Handler().Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip [Callers, log, Info/Warn/etc]
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(a...)
	//nolint:errcheck
	l.Handler().Handle(ctx, r)
}

func Debug(msg string, a ...any) { log(context.Background(), slog.LevelDebug, msg, a) }

func DebugContext(ctx context.Context, msg string, a ...any) { log(ctx, slog.LevelDebug, msg, a) }

func Info(msg string, a ...any) { log(context.Background(), slog.LevelInfo, msg, a) }

func InfoContext(ctx context.Context, msg string, a ...any) { log(ctx, slog.LevelInfo, msg, a) }

func Warn(msg string, a ...any) { log(context.Background(), slog.LevelWarn, msg, a) }

func WarnContext(ctx context.Context, msg string, a ...any) { log(ctx, slog.LevelWarn, msg, a) }

func Error(msg string, a ...any) { log(context.Background(), slog.LevelError, msg, a) }

func ErrorContext(ctx context.Context, msg string, a ...any) { log(ctx, slog.LevelError, msg, a) }
