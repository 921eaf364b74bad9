package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type prettyStyles struct {
	time  lipgloss.Style
	debug lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	key   lipgloss.Style
}

func newPrettyStyles(r *lipgloss.Renderer) *prettyStyles {
	level := r.NewStyle().Bold(true).Width(5)
	return &prettyStyles{
		time:  r.NewStyle().Foreground(lipgloss.Color("8")),
		debug: level.Foreground(lipgloss.Color("8")),
		info:  level.Foreground(lipgloss.Color("4")),
		warn:  level.Foreground(lipgloss.Color("3")),
		err:   level.Foreground(lipgloss.Color("1")),
		key:   r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (s *prettyStyles) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return s.err
	case l >= slog.LevelWarn:
		return s.warn
	case l >= slog.LevelInfo:
		return s.info
	default:
		return s.debug
	}
}

// PrettyHandler is a slog.Handler producing one styled line per record:
//
//	[2024-01-02 15:04:05] INFO  epoch done epoch=3 loss=0.4123
//
// Colours are only emitted when the writer is a colour-capable terminal.
type PrettyHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	styles *prettyStyles
	group  string
	attrs  []slog.Attr
}

// NewPrettyHandler creates a new PrettyHandler.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{
		opts:   *opts,
		w:      w,
		mu:     &sync.Mutex{},
		styles: newPrettyStyles(lipgloss.NewRenderer(w)),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle formats and writes a log record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(h.styles.time.Render("[" + r.Time.Format(time.DateTime) + "]"))
	sb.WriteByte(' ')
	sb.WriteString(h.styles.level(r.Level).Render(r.Level.String()))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	// Handler attrs carry their group prefix from WithAttrs.
	for _, a := range h.attrs {
		h.appendAttr(&sb, a, "")
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, a, h.group)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup returns a new handler with a group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		h2.group = h.group + "." + name
	} else {
		h2.group = name
	}
	return &h2
}

func (h *PrettyHandler) appendAttr(sb *strings.Builder, a slog.Attr, group string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.appendAttr(sb, ga, key)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(h.styles.key.Render(key + "="))
	sb.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			return strconv.Quote(s)
		}
		return s
	case slog.KindFloat64:
		f := v.Float64()
		if math.IsNaN(f) {
			return "nan"
		}
		return strconv.FormatFloat(f, 'g', 4, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\n\"=")
}
