package stats

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// ANSI codes used by the report. The box outline is grey, labels green,
// values pink, matching the rest of the CLI's palette.
const (
	cGrey  = "\033[90m"
	cCyan  = "\033[36m"
	cGreen = "\033[92m"
	cPink  = "\033[38;5;205m"
	cRed   = "\033[31m"
	cReset = "\033[0m"
)

const boxWidth = 64

// Render writes the ANSI statistics report to w.
func (s *Statistics) Render(w io.Writer) {
	snap := s.Get()

	top := cGrey + "╔══════════════════════════════════════════════════════════════╗\n" + cReset
	bottom := cGrey + "╚══════════════════════════════════════════════════════════════╝\n" + cReset

	fmt.Fprint(w, "\n")
	fmt.Fprint(w, top)
	fmt.Fprint(w, cGrey+"║                      CRAWL STATISTICS                        ║\n"+cReset)
	fmt.Fprint(w, bottom)

	fmt.Fprint(w, top)
	sectionLine(w, "GENERAL INFO")
	statLine(w, "╟─", "Requests:", fmt.Sprintf("%d", snap.TotalRequests))
	statLine(w, "╟─", "Errors:", fmt.Sprintf("%d", snap.TotalErrors))
	statLine(w, "╙─", "Data Received:", fmt.Sprintf("%.2f KB", float64(snap.TotalBytesReceived)/1024.0))
	fmt.Fprint(w, bottom)

	fmt.Fprint(w, top)
	sectionLine(w, "LATENCY (ms)")
	inner := func(content string) {
		fmt.Fprintf(w, "%s║%s  %s%s  ║%s\n", cGrey, cReset, content, cGrey, cReset)
	}
	divider := cRed + "│" + cReset
	inner(cRed + "╭──────────────────┬──────────────────┬──────────────────╮" + cReset)
	inner(divider + cGreen + "      Average     " + cReset + divider +
		cGreen + "        Min       " + cReset + divider +
		cGreen + "        Max       " + cReset + divider)
	inner(divider + cPink + center(fmt.Sprintf("%.2f", snap.AvgLatencyMs), 18) + cReset + divider +
		cPink + center(fmt.Sprintf("%.2f", snap.MinLatencyMs), 18) + cReset + divider +
		cPink + center(fmt.Sprintf("%.2f", snap.MaxLatencyMs), 18) + cReset + divider)
	inner(cRed + "╰──────────────────┴──────────────────┴──────────────────╯" + cReset)
	fmt.Fprint(w, bottom)

	fmt.Fprint(w, top)
	sectionLine(w, "CONNECTIONS")
	statLine(w, "╟─", "Created:", fmt.Sprintf("%d", snap.ConnectionsCreated))
	statLine(w, "╟─", "Reused:", fmt.Sprintf("%d", snap.ConnectionsReused))
	statLine(w, "╙─", "Reuse Rate:", reuseRate(snap))
	fmt.Fprint(w, bottom)

	fmt.Fprint(w, top)
	sectionLine(w, "DETAILED TIMING")
	statLine(w, "└─", "DNS Lookup:", fmt.Sprintf("%.2f ms", snap.AvgDNSMs))
	statLine(w, "└─", "TCP Handshake:", fmt.Sprintf("%.2f ms", snap.AvgTCPHandshakeMs))
	statLine(w, "└─", "First Byte:", fmt.Sprintf("%.2f ms", snap.AvgFirstByteMs))
	statLine(w, "└─", "Last Byte:", fmt.Sprintf("%.2f ms", snap.AvgLastByteMs))
	fmt.Fprint(w, bottom)

	if len(snap.ErrorCounts) > 0 {
		fmt.Fprint(w, top)
		sectionLine(w, "ERRORS")
		i := 0
		for kind, count := range snap.ErrorCounts {
			connector := "╟─"
			if i == len(snap.ErrorCounts)-1 {
				connector = "╙─"
			}
			statLine(w, connector, kind+":", fmt.Sprintf("%d", count))
			i++
		}
		fmt.Fprint(w, bottom)
	}
	fmt.Fprint(w, "\n")
}

func reuseRate(snap Snapshot) string {
	total := snap.ConnectionsCreated + snap.ConnectionsReused
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100.0*float64(snap.ConnectionsReused)/float64(total))
}

// sectionLine prints a section header inside the box.
func sectionLine(w io.Writer, title string) {
	pad := boxWidth - 4 - utf8.RuneCountInString(title)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "%s║%s  %s%s%s%*s%s║%s\n", cGrey, cReset, cGreen, title, cReset, pad, "", cGrey, cReset)
}

// statLine prints one "connector label value" line, value column at col 22.
func statLine(w io.Writer, connector, label, value string) {
	labelPad := 15 - utf8.RuneCountInString(label)
	if labelPad < 1 {
		labelPad = 1
	}
	used := 6 + utf8.RuneCountInString(label) + labelPad + utf8.RuneCountInString(value)
	pad := boxWidth - used - 1
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(w, "%s║%s  %s%s%s %s%s%s%*s%s%*s%s║%s\n",
		cGrey, cReset, cCyan, connector, cReset, cGreen, label, cReset,
		labelPad, "", cPink+value+cReset, pad, "", cGrey, cReset)
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	right := width - n - left
	return fmt.Sprintf("%*s%s%*s", left, "", s, right, "")
}
