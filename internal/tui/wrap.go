// Package tui provides the Bubble Tea capture interface.
package tui

import (
	"github.com/mattn/go-runewidth"
)

// wrapText word-wraps a string to the given display width, breaking on
// spaces where possible. Widths are measured per rune so wide glyphs in
// model replies do not overflow the panel.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	var line []rune
	lineWidth := 0
	lastSpaceIdx := -1

	runes := []rune(s)
	for i := 0; i < len(runes); {
		r := runes[i]
		w := runewidth.RuneWidth(r)
		if lineWidth+w > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				lines = append(lines, string(line[:lastSpaceIdx]))
				line = append([]rune{}, line[lastSpaceIdx+1:]...)
				lineWidth = runesWidth(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				lines = append(lines, string(line))
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, r)
		lineWidth += w
		if r == ' ' {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	lines = append(lines, string(line))
	return lines
}

func runesWidth(line []rune) int {
	total := 0
	for _, r := range line {
		total += runewidth.RuneWidth(r)
	}
	return total
}

func lastSpaceIndex(line []rune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ' ' {
			return i
		}
	}
	return -1
}
