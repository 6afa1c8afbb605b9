package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestElideMiddle(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Nothing to elide in this short string.", 80, "Nothing to elide in this short string."},
		{"01234567890123456789", 10, "012...6789"},
		{"01234567890123456789", 11, "0123...6789"},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := elideMiddle(tt.in, tt.width); got != tt.want {
			t.Errorf("elideMiddle(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if got := elideMiddle(tt.in, tt.width); len(got) > tt.width {
			t.Errorf("elideMiddle(%q, %d) is %d wide", tt.in, tt.width, len(got))
		}
	}
}

func TestDumbPrinter(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	var buf bytes.Buffer
	p := NewLinePrinterTo(&buf, false)
	p.Print("status", ELIDE)
	p.PrintOnNewLine("line\n")
	if got := buf.String(); got != "status\nline\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if p.Paint("x", color.FgRed) != "x" {
		t.Fatalf("dumb printer should not color")
	}
}

func TestSmartPrinterOverprints(t *testing.T) {
	var buf bytes.Buffer
	p := NewLinePrinterTo(&buf, true)
	p.Print(strings.Repeat("x", 2*kTerminalWidth), ELIDE)
	p.PrintOnNewLine("done\n")
	out := buf.String()
	if !strings.HasPrefix(out, "\r") || !strings.Contains(out, "...") {
		t.Fatalf("expected an elided overprint, got %q", out)
	}
	if !strings.HasSuffix(out, "\033[K\ndone\n") {
		t.Fatalf("expected the next line to start fresh, got %q", out)
	}
}

func TestForcedColor(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "1")
	p := NewLinePrinterTo(&bytes.Buffer{}, false)
	if !p.supports_color() {
		t.Fatalf("CLICOLOR_FORCE should enable color")
	}
	if got := p.Paint("x", color.FgRed); got == "x" || !strings.Contains(got, "x") {
		t.Fatalf("expected a colored x, got %q", got)
	}
}

func TestMetricsReport(t *testing.T) {
	m := &Metrics{}
	scoped := NewScopedMetric(m.NewMetric("march"))
	scoped.Release()
	NewScopedMetric(m.NewMetric("march")).Release()
	if len(m.metrics_) != 1 || m.metrics_[0].count != 2 {
		t.Fatalf("expected one metric hit twice, got %+v", m.metrics_)
	}

	var buf bytes.Buffer
	m.Report(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "metric") || !strings.HasPrefix(lines[1], "march") {
		t.Fatalf("unexpected report %q", buf.String())
	}

	// With metrics off, recording is a no-op.
	GMetrics = nil
	METRIC_RECORD("ignored").Release()
}
