package libraryui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/echosnap/internal/model"
)

// FormatShots renders shots as aligned plain-text lines for non-TTY output.
func FormatShots(shots []model.Shot) []string {
	headers := []string{"ID", "Taken", "Size", "Zoom", "EV", "Orientation", "Path"}
	rows := make([][]string, 0, len(shots))
	for _, shot := range shots {
		rows = append(rows, []string{
			fmt.Sprintf("%d", shot.ID),
			shot.TakenAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%dx%d", shot.Width, shot.Height),
			fmt.Sprintf("%.1fx", shot.ZoomFactor),
			fmt.Sprintf("%+.1f", shot.ExposureBias),
			shot.Orientation,
			shot.Path,
		})
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true}
	return formatTable(headers, rows, rightAlign)
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return b.String()
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return utf8.RuneCountInString(value)
}
