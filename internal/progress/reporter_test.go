package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	var c Counter
	c.Add(100)
	c.Add(50)
	if c.Downloaded() != 150 {
		t.Errorf("downloaded = %d, want 150", c.Downloaded())
	}

	c.SetTotal(1000)
	if c.Total() != 1000 {
		t.Errorf("total = %d, want 1000", c.Total())
	}

	c.Reset()
	if c.Downloaded() != 0 {
		t.Errorf("downloaded = %d after reset, want 0", c.Downloaded())
	}
}

func TestReporterDrawsAndStops(t *testing.T) {
	var c Counter
	c.SetTotal(200)
	c.Add(100)

	var buf bytes.Buffer
	r := NewReporter(&c, Options{
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
		Width:          80,
	})
	r.Start()
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	out := buf.String()
	if !strings.Contains(out, "Progress:") {
		t.Errorf("no progress line drawn: %q", out)
	}
	if !strings.Contains(out, "50.0%") {
		t.Errorf("percentage missing: %q", out)
	}

	// Stop is idempotent.
	r.Stop()
}

func TestReporterUnknownTotal(t *testing.T) {
	var c Counter
	c.Add(10)

	var buf bytes.Buffer
	r := NewReporter(&c, Options{Output: &buf, UpdateInterval: 10 * time.Millisecond})
	r.Start()
	time.Sleep(30 * time.Millisecond)
	r.Stop()

	if !strings.Contains(buf.String(), "content length not provided") {
		t.Errorf("blind bar message missing: %q", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512B"},
		{1024, "1.00KB"},
		{102400, "100.00KB"},
		{1536 * 1024, "1.50MB"},
		{3 * 1024 * 1024 * 1024, "3.00GB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"256MB", 256 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"100KB", 100 * 1024},
		{"42B", 42},
		{"42", 42},
	}

	for _, tt := range tests {
		got, err := ParseBytes(tt.in)
		if err != nil {
			t.Errorf("ParseBytes(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := ParseBytes("not a size"); err == nil {
		t.Error("expected error for invalid input")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m 30s"},
		{3930 * time.Second, "1h 5m 30s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
