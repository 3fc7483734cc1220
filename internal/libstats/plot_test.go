package libstats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotHistogram(t *testing.T) {
	var buf bytes.Buffer
	err := PlotHistogram(&buf, Histogram{
		Title:      "Shots per Day",
		Values:     []float64{1, 0, 3, 2, 5, 1, 0, 2, 4, 1},
		FirstLabel: "2026-03-01",
		LastLabel:  "2026-03-10",
	}, 10, 4, false)
	if err != nil {
		t.Fatalf("PlotHistogram failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Shots per Day") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "2026-03-01") || !strings.Contains(out, "2026-03-10") {
		t.Fatalf("expected axis endpoints in output:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// Title, 4 plot rows, axis line, trailing blank.
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines of output, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "5") {
		t.Fatalf("expected max value label on top row, got %q", lines[1])
	}
	if !strings.Contains(lines[4], "0") {
		t.Fatalf("expected zero label on bottom row, got %q", lines[4])
	}
}

func TestPlotHistogramEmptyIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotHistogram(&buf, Histogram{}, 10, 4, false); err != nil {
		t.Fatalf("PlotHistogram failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty histogram, got %q", buf.String())
	}
}

func TestPlotHistogramNonZeroBarsVisible(t *testing.T) {
	var buf bytes.Buffer
	err := PlotHistogram(&buf, Histogram{
		Values: []float64{100, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}, 10, 4, false)
	if err != nil {
		t.Fatalf("PlotHistogram failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	bottom := lines[len(lines)-1]
	empty := brailleFromMask(0)
	for _, r := range bottom {
		if r == empty {
			t.Fatalf("expected every non-zero bar to reach the baseline row, got %q", bottom)
		}
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got >= 80 || got < minPlotWidth {
		t.Fatalf("unexpected plot width for 80 columns: %d", got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected fallback width %d, got %d", minPlotWidth, got)
	}
	if got := PlotWidthFor(5); got != minPlotWidth {
		t.Fatalf("expected clamped width %d, got %d", minPlotWidth, got)
	}
}

func TestResampleBars(t *testing.T) {
	shrunk := resampleBars([]float64{2, 4, 6, 8}, 2)
	if len(shrunk) != 2 || shrunk[0] != 3 || shrunk[1] != 7 {
		t.Fatalf("unexpected shrink result: %v", shrunk)
	}
	grown := resampleBars([]float64{1, 5}, 4)
	if len(grown) != 4 || grown[0] != 1 || grown[3] != 5 {
		t.Fatalf("unexpected grow result: %v", grown)
	}
	for _, v := range grown {
		if v != 1 && v != 5 {
			t.Fatalf("grown bars must repeat source values, got %v", grown)
		}
	}
}
