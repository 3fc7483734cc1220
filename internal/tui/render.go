package tui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/echosnap/internal/capture"
	"github.com/verte-zerg/echosnap/internal/device"
)

// lumRamp maps luminance to glyphs, darkest first.
var lumRamp = []rune(" .:-=+*#%@")

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.controller.Snapshot()

	var left string
	switch {
	case !snap.Authorized:
		left = errorStyle.Render("Camera access denied.\nEnable it in system settings and restart.")
	case snap.State == capture.StatePhotoPendingReview && snap.Pending != nil:
		left = reviewStyle.Render(renderPhoto(*snap.Pending, m.viewW, m.viewH)) +
			"\n" + titleStyle.Render("Review") + footerStyle.Render("  s save · x discard")
	case !snap.PreviewActive:
		left = frameStyle.Render(emptyViewfinder(m.viewW, m.viewH)) +
			"\n" + footerStyle.Render("Preview off · p to resume")
	default:
		frame := m.controller.PreviewFrame(m.viewW, m.viewH)
		left = frameStyle.Render(m.renderViewfinder(frame, snap)) +
			"\n" + m.statusLine(snap)
	}

	right := m.renderGuidance()
	panels := []string{left, "  ", right}
	if m.refImg != nil {
		ref := frameStyle.Render(renderImage(m.refImg, m.viewW, m.viewH)) +
			"\n" + footerStyle.Render("Reference")
		panels = append([]string{ref, "  "}, panels...)
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panels...)
	footer := footerStyle.Render("space capture · +/- zoom · t 2x · arrows+enter focus · f lock · [/] exposure · r rotate · g guidance · q quit")
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body+"\n\n"+footer)
	}
	return body + "\n\n" + footer
}

// renderViewfinder draws the preview frame with the focus reticle overlay.
func (m *Model) renderViewfinder(frame device.Frame, snap capture.Snapshot) string {
	if frame.Width == 0 || frame.Height == 0 {
		return emptyViewfinder(m.viewW, m.viewH)
	}
	grid := make([][]rune, frame.Height)
	for y := 0; y < frame.Height; y++ {
		row := make([]rune, frame.Width)
		for x := 0; x < frame.Width; x++ {
			row[x] = lumGlyph(frame.At(x, y))
		}
		grid[y] = row
	}
	if snap.FocusPoint != nil {
		fx := clampI(int(snap.FocusPoint.X*float64(frame.Width-1)+0.5), 0, frame.Width-1)
		fy := clampI(int(snap.FocusPoint.Y*float64(frame.Height-1)+0.5), 0, frame.Height-1)
		if snap.FocusLocked {
			grid[fy][fx] = 'X'
		} else {
			grid[fy][fx] = '+'
		}
	} else {
		grid[m.reticleY][m.reticleX] = '·'
	}

	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusLine(snap capture.Snapshot) string {
	segments := []string{
		fmt.Sprintf("%.1fx", snap.ZoomFactor),
		fmt.Sprintf("EV %+.1f", snap.ExposureBias),
		snap.Orientation.String(),
	}
	if snap.FocusLocked {
		segments = append(segments, "AE/AF locked")
	}
	if !snap.Running {
		segments = append(segments, "starting…")
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) renderGuidance() string {
	width := 36
	var b strings.Builder
	b.WriteString(titleStyle.Render("Guidance"))
	if m.guiding {
		b.WriteString(footerStyle.Render("  requesting…"))
	}
	b.WriteString("\n")
	for _, item := range m.items {
		style := categoryStyle
		if item.Category == "Error" {
			style = errorStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s - %s", item.Category, item.Direction)))
		b.WriteString("\n")
		for _, line := range wrapText(item.Detail, width) {
			b.WriteString(detailStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func lumGlyph(lum float64) rune {
	idx := int(lum * float64(len(lumRamp)-1))
	return lumRamp[clampI(idx, 0, len(lumRamp)-1)]
}

func emptyViewfinder(width, height int) string {
	lines := make([]string, height)
	for i := range lines {
		lines[i] = strings.Repeat(" ", width)
	}
	return strings.Join(lines, "\n")
}

// renderPhoto draws a captured JPEG as glyphs for the review screen.
func renderPhoto(photo device.Photo, width, height int) string {
	img, err := jpeg.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		return emptyViewfinder(width, height)
	}
	return renderImage(img, width, height)
}

// renderImage samples a decoded image down to a luminance glyph grid.
func renderImage(img image.Image, width, height int) string {
	bounds := img.Bounds()
	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/width
			sy := bounds.Min.Y + y*bounds.Dy()/height
			gray := color.GrayModel.Convert(img.At(sx, sy)).(color.Gray)
			b.WriteRune(lumGlyph(float64(gray.Y) / 255))
		}
		if y < height-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// encodeFrameJPEG turns a preview frame into a JPEG for guidance requests.
func encodeFrameJPEG(frame device.Frame) []byte {
	if frame.Width == 0 || frame.Height == 0 {
		return nil
	}
	img := image.NewGray(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(frame.At(x, y) * 255)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil
	}
	return buf.Bytes()
}
