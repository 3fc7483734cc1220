package libstats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Histogram is a single-series bar plot with optional time-axis endpoints.
type Histogram struct {
	Title      string
	Values     []float64
	FirstLabel string
	LastLabel  string
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorAccent         = "\x1b[36m"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// PlotHistogram renders the histogram as braille bar columns filled from the
// zero baseline upward.
func PlotHistogram(w io.Writer, h Histogram, width, height int, forceColor bool) error {
	if len(h.Values) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	values := resampleBars(h.Values, width)
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	dotRows := height * 4
	for x, v := range values {
		top := int(math.Round(v / maxVal * float64(dotRows)))
		if v > 0 && top == 0 {
			top = 1
		}
		for dy := 0; dy < top; dy++ {
			y := dotRows - 1 - dy
			setBrailleDot(cells, x*2, y)
			setBrailleDot(cells, x*2+1, y)
		}
	}

	topLabel := formatAxisValue(maxVal)
	bottomLabel := "0"
	leftAxisWidth := utf8.RuneCountInString(topLabel)
	useColor := shouldUseColor(w, forceColor)

	if h.Title != "" {
		if _, err := fmt.Fprintln(w, h.Title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		label := ""
		if y == 0 {
			label = topLabel
		}
		if y == height-1 {
			label = bottomLabel
		}
		prefix := fmt.Sprintf("%*s%s", leftAxisWidth, label, axisSeparator)
		var row strings.Builder
		row.WriteString(prefix)
		if useColor {
			row.WriteString(colorAccent)
		}
		for x := 0; x < width; x++ {
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		if useColor {
			row.WriteString(colorReset)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if h.FirstLabel != "" || h.LastLabel != "" {
		if _, err := fmt.Fprintln(w, axisLine(h.FirstLabel, h.LastLabel, leftAxisWidth, width)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := len("0000") + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func axisLine(first, last string, leftAxisWidth, width int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", leftAxisWidth+utf8.RuneCountInString(axisSeparator)))
	b.WriteString(first)
	gap := width - utf8.RuneCountInString(first) - utf8.RuneCountInString(last)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(strings.Repeat(" ", gap))
	b.WriteString(last)
	return b.String()
}

func formatAxisValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// resampleBars shrinks by averaging value buckets or grows by repeating the
// nearest bar; bars are never interpolated.
func resampleBars(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) >= width {
		for i := 0; i < width; i++ {
			start := i * len(values) / width
			end := (i + 1) * len(values) / width
			if end <= start {
				end = start + 1
			}
			if end > len(values) {
				end = len(values)
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	for i := 0; i < width; i++ {
		out[i] = values[i*len(values)/width]
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
