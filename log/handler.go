package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// termColorsEnabled reports whether w looks like a color-capable terminal,
// the same heuristic go-ethereum's cmd/utils uses to decide whether to wrap
// os.Stdout/os.Stderr in colorable.
func termColorsEnabled(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// NewTerminalHandler returns a slog.Handler that renders records the way a
// human reads them at a terminal: level, message, then key=value pairs.
// useColor wraps wr in mattn/go-colorable so ANSI sequences render on
// Windows consoles too.
func NewTerminalHandler(wr io.Writer, useColor bool) slog.Handler {
	if useColor {
		if f, ok := wr.(*os.File); ok {
			wr = colorable.NewColorable(f)
		}
	}
	return &terminalHandler{mu: new(sync.Mutex), wr: wr}
}

// NewFileHandler returns a slog.Handler backed by a size- and age-rotated
// log file via lumberjack, for long-running node deployments.
func NewFileHandler(path string, maxSizeMB, maxAgeDays, maxBackups int) slog.Handler {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxAge:     maxAgeDays,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &terminalHandler{mu: new(sync.Mutex), wr: w}
}

type terminalHandler struct {
	mu    *sync.Mutex
	wr    io.Writer
	attrs []slog.Attr
}

func (h *terminalHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", r.Time.Format(time.RFC3339), levelName(r.Level), r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')
	_, err := io.WriteString(h.wr, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &cp
}

func (h *terminalHandler) WithGroup(string) slog.Handler { return h }

func levelName(l slog.Level) string {
	switch {
	case l <= levelTrace:
		return "TRACE"
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
