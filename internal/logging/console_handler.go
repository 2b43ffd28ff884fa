package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// consoleHandler renders compact single-line records for interactive use.
// Color is enabled only when the writer is a terminal.
type consoleHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
	color bool
}

func newConsoleHandler(out io.Writer, level slog.Leveler) *consoleHandler {
	color := false
	if file, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	return &consoleHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
		color: color,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder

	b.WriteString(h.dim(record.Time.Format("15:04:05")))
	b.WriteByte(' ')
	b.WriteString(h.levelTag(record.Level))
	b.WriteByte(' ')
	b.WriteString(record.Message)

	appendAttr := func(attr slog.Attr) {
		if attr.Equal(slog.Attr{}) {
			return
		}
		b.WriteByte(' ')
		b.WriteString(h.dim(attr.Key + "="))
		b.WriteString(fmt.Sprintf("%v", attr.Value.Resolve().Any()))
	}
	for _, attr := range h.attrs {
		appendAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(attr)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	// Groups are flattened; the console format has no nesting.
	return h
}

func (h *consoleHandler) levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.paint(ansiRed, "ERROR")
	case level >= slog.LevelWarn:
		return h.paint(ansiYellow, "WARN ")
	case level >= slog.LevelInfo:
		return h.paint(ansiBlue, "INFO ")
	default:
		return h.paint(ansiDim, "DEBUG")
	}
}

func (h *consoleHandler) paint(code, text string) string {
	if !h.color {
		return text
	}
	return code + text + ansiReset
}

func (h *consoleHandler) dim(text string) string {
	return h.paint(ansiDim, text)
}
