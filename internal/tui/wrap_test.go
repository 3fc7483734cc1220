package tui

import "testing"

func TestWrapTextBreaksOnSpaces(t *testing.T) {
	lines := wrapText("step back two meters and tilt down", 12)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "step back" {
		t.Fatalf("unexpected first line: %q", lines[0])
	}
	for _, line := range lines {
		if w := runesWidth([]rune(line)); w > 12 {
			t.Fatalf("line %q exceeds width: %d", line, w)
		}
	}
}

func TestWrapTextHardBreaksLongWords(t *testing.T) {
	lines := wrapText("abcdefghij", 4)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "abcd" || lines[1] != "efgh" || lines[2] != "ij" {
		t.Fatalf("unexpected hard break: %q", lines)
	}
}

func TestWrapTextZeroWidthPassesThrough(t *testing.T) {
	lines := wrapText("unchanged", 0)
	if len(lines) != 1 || lines[0] != "unchanged" {
		t.Fatalf("unexpected result: %q", lines)
	}
}

func TestWrapTextShortInputSingleLine(t *testing.T) {
	lines := wrapText("ok", 10)
	if len(lines) != 1 || lines[0] != "ok" {
		t.Fatalf("unexpected result: %q", lines)
	}
}
