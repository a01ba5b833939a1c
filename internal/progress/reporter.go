package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Counter tracks download progress. It is handed to the client as an
// observer: the response reader adds bytes as they arrive off the wire.
type Counter struct {
	downloaded atomic.Int64
	total      atomic.Int64
}

// Add records n more bytes received.
func (c *Counter) Add(n int64) { c.downloaded.Add(n) }

// Downloaded returns the bytes received so far.
func (c *Counter) Downloaded() int64 { return c.downloaded.Load() }

// SetTotal sets the expected total size (0 when unknown).
func (c *Counter) SetTotal(n int64) { c.total.Store(n) }

// Total returns the expected total size.
func (c *Counter) Total() int64 { return c.total.Load() }

// Reset zeroes the downloaded count.
func (c *Counter) Reset() { c.downloaded.Store(0) }

// Options configures the progress reporter.
type Options struct {
	// Output is where to draw the bar. Default: os.Stderr.
	Output io.Writer

	// UpdateInterval is how often the bar is redrawn. Default: 100ms.
	UpdateInterval time.Duration

	// Width is the terminal width used to size the bar. Default: 80.
	Width int
}

// Reporter redraws a single-line progress bar from a Counter.
type Reporter struct {
	opts    Options
	counter *Counter

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	stopped bool
}

// NewReporter creates a reporter over counter.
func NewReporter(counter *Counter, opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 100 * time.Millisecond
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Reporter{
		opts:    opts,
		counter: counter,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins redrawing the bar until Stop is called.
func (r *Reporter) Start() {
	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(r.opts.UpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				r.draw()
				fmt.Fprintln(r.opts.Output)
				return
			case <-ticker.C:
				r.draw()
			}
		}
	}()
}

// Stop halts the reporter after a final draw.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()
	close(r.stopCh)
	<-r.doneCh
}

const (
	cCyan   = "\033[36m"
	cGrey   = "\033[38;5;244m"
	cPink   = "\033[38;5;205m"
	cOrange = "\033[38;5;208m"
	cFluor  = "\033[38;5;118m"
	cRed    = "\033[31m"
	cYellow = "\033[33m"
	cReset  = "\033[0m"
)

// draw overwrites the current line with the bar, percentage, and sizes.
func (r *Reporter) draw() {
	downloaded := r.counter.Downloaded()
	total := r.counter.Total()

	downStr := FormatBytes(downloaded)
	totalStr := "--b"
	percStr := "--%"
	if total > 0 {
		totalStr = FormatBytes(total)
		percStr = fmt.Sprintf("%.1f%%", float64(downloaded)/float64(total)*100)
	}

	reserved := len("Progress:[") + len("] [") + len(percStr) +
		len("] [") + len(downStr) + len("/") + len(totalStr) + len("]")
	barWidth := r.opts.Width - reserved - 1
	if barWidth < 10 {
		barWidth = 10
	}

	var bar string
	if total > 0 {
		filled := int(float64(downloaded) / float64(total) * float64(barWidth))
		if filled > barWidth {
			filled = barWidth
		}
		bar = cFluor + strings.Repeat("#", filled) + cRed + strings.Repeat("-", barWidth-filled)
	} else {
		msg := "content length not provided by site"
		if barWidth < len(msg) {
			bar = cYellow + msg[:barWidth]
		} else {
			left := (barWidth - len(msg)) / 2
			right := barWidth - len(msg) - left
			bar = cRed + strings.Repeat("-", left) + cYellow + msg + cRed + strings.Repeat("-", right)
		}
	}

	fmt.Fprintf(r.opts.Output, "\r%sProgress:%s%s[%s%s%s]%s %s[%s%s%s]%s %s[%s%s%s/%s%s%s]%s\033[K",
		cCyan, cReset, cGrey, cReset, bar, cGrey, cReset,
		cGrey, cPink, percStr, cGrey, cReset,
		cGrey, cPink, downStr, cOrange, totalStr, cReset, cGrey, cReset)
}

// FormatBytes formats bytes as a human-readable string.
func FormatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2fTB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2fGB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2fMB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2fKB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// FormatDuration formats a duration as a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// ParseBytes parses a human-readable byte string (e.g., "256MB").
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	s = strings.TrimSpace(s)

	switch {
	case strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	if _, err := fmt.Sscanf(s, "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}
