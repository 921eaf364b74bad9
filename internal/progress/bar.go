package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/samcharles93/helix/internal/metrics"
)

const (
	defaultWidth = 120
	minBarWidth  = 10
	maxBarWidth  = 40
)

var (
	counterStyle = lipgloss.NewStyle().Bold(true)
	timingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	metricStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Bar is a single-line, tqdm-style progress bar:
//
//	Train ████████░░░░ 12/40 [00:05<00:11, 2.40it/s] acc: 0.91, ...
//
// The line is redrawn in place with a carriage return.
type Bar struct {
	mu      sync.Mutex
	w       io.Writer
	desc    string
	width   int
	total   int
	step    int
	start   time.Time
	now     func() time.Time
	bar     bprogress.Model
	summary *metrics.Summary
	drawn   bool
}

// BarOption configures a Bar.
type BarOption func(*Bar)

// WithWidth fixes the line width instead of probing the terminal.
func WithWidth(n int) BarOption {
	return func(b *Bar) { b.width = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BarOption {
	return func(b *Bar) { b.now = now }
}

// NewBar returns a bar labelled desc writing to w.  When w is a terminal
// the line width follows the terminal.
func NewBar(w io.Writer, desc string, opts ...BarOption) *Bar {
	b := &Bar{w: w, desc: desc, now: time.Now}
	if f, ok := w.(*os.File); ok {
		b.width = terminalWidth(f)
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.width <= 0 {
		b.width = defaultWidth
	}
	barWidth := min(max(b.width/4, minBarWidth), maxBarWidth)
	b.bar = bprogress.New(
		bprogress.WithDefaultGradient(),
		bprogress.WithWidth(barWidth),
		bprogress.WithoutPercentage(),
	)
	return b
}

// Start resets the bar for a new pass of total iterations.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.total = total
	b.step = 0
	b.summary = nil
	b.start = b.now()
	b.drawn = false
	b.render()
}

// Update advances the bar to step and shows s.
func (b *Bar) Update(step int, s metrics.Summary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.step = step
	b.summary = &s
	b.render()
}

// Finish terminates the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drawn {
		_, _ = io.WriteString(b.w, "\n")
	}
	b.drawn = false
}

func (b *Bar) render() {
	_, _ = io.WriteString(b.w, "\r"+b.line())
	b.drawn = true
}

func (b *Bar) line() string {
	pct := 0.0
	if b.total > 0 {
		pct = min(float64(b.step)/float64(b.total), 1)
	}
	elapsed := b.now().Sub(b.start)

	var sb strings.Builder
	if b.desc != "" {
		sb.WriteString(b.desc)
		sb.WriteByte(' ')
	}
	sb.WriteString(b.bar.ViewAs(pct))
	sb.WriteByte(' ')
	sb.WriteString(counterStyle.Render(fmt.Sprintf("%d/%d", b.step, b.total)))
	sb.WriteByte(' ')
	sb.WriteString(timingStyle.Render(timing(b.step, b.total, elapsed)))
	if b.summary != nil {
		sb.WriteByte(' ')
		sb.WriteString(metricStyle.Render(b.summary.String()))
	}
	out := sb.String()
	if lipgloss.Width(out) > b.width {
		out = lipgloss.NewStyle().MaxWidth(b.width).Render(out)
	}
	return out
}

// timing renders "[elapsed<remaining, rate]".
func timing(step, total int, elapsed time.Duration) string {
	remaining := "?"
	rate := "?it/s"
	if step > 0 && elapsed > 0 {
		perIter := elapsed / time.Duration(step)
		if total >= step {
			remaining = formatDuration(perIter * time.Duration(total-step))
		}
		rate = fmt.Sprintf("%.2fit/s", float64(step)/elapsed.Seconds())
	}
	return fmt.Sprintf("[%s<%s, %s]", formatDuration(elapsed), remaining, rate)
}

// formatDuration formats duration as MM:SS, or H:MM:SS past an hour.
func formatDuration(d time.Duration) string {
	secs := int(d.Seconds())
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
