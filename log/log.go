// Package log provides the relay engine's leveled logger. It is a thin
// wrapper around log/slog, adapted from go-ethereum's log package: the same
// split between a small Logger facade and pluggable slog.Handler backends
// (terminal, rotating file), so that embedding nodes can redirect relay
// engine output the same way they redirect the rest of their logging.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the interface used throughout the relay engine. It mirrors
// go-ethereum's log.Logger: leveled methods taking alternating key/value
// pairs rather than a format string, so structured fields survive into
// whatever handler is installed.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any) // logs at Error and then exits the process

	With(ctx ...any) Logger
	Handler() slog.Handler
}

const levelTrace = slog.Level(-8)

type logger struct {
	inner *slog.Logger
}

// New creates a Logger with the given handler. Passing nil installs a
// terminal handler writing to stderr, matching go-ethereum's Root() default.
func New(handler slog.Handler) Logger {
	if handler == nil {
		handler = NewTerminalHandler(os.Stderr, termColorsEnabled(os.Stderr))
	}
	return &logger{inner: slog.New(handler)}
}

func (l *logger) write(level slog.Level, msg string, ctx []any) {
	l.inner.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { l.write(levelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.write(slog.LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(slog.LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(slog.LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(slog.LevelError, msg, ctx) }

func (l *logger) Crit(msg string, ctx ...any) {
	l.write(slog.LevelError, msg, ctx)
	os.Exit(1)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

var root Logger = New(nil)

// Root returns the package-level default logger, in the same spirit as
// go-ethereum's log.Root() — a process-wide sink that SetDefault replaces.
func Root() Logger { return root }

// SetDefault installs l as the package-level default logger.
func SetDefault(l Logger) { root = l }

func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }

// NewWith creates a child of the default logger carrying the given fields,
// matching go-ethereum's package-level log.New(ctx...) convenience.
func NewWith(ctx ...any) Logger { return root.With(ctx...) }
