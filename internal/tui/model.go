package tui

import (
	"bytes"
	"context"
	"image"
	_ "image/png" // Reference images may be PNG.
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/echosnap/internal/capture"
	"github.com/verte-zerg/echosnap/internal/device"
	"github.com/verte-zerg/echosnap/internal/guidance"
	"github.com/verte-zerg/echosnap/internal/model"
)

const (
	previewTick     = 100 * time.Millisecond
	pinchStep       = 1.1
	exposureStep    = 20.0
	guidanceTimeout = 30 * time.Second
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	frameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	reviewStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#C89A3A"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

type tickMsg time.Time

type guidanceMsg []model.GuidanceItem

// Model implements the Bubble Tea capture UI. It translates key events
// into the controller's gesture operations and re-renders its snapshot.
type Model struct {
	controller *capture.Controller
	provider   guidance.Provider
	gcfg       model.GuidanceConfig

	reference []byte
	refMIME   string
	refImg    image.Image

	width  int
	height int

	viewW int
	viewH int

	reticleX int
	reticleY int

	items   []model.GuidanceItem
	guiding bool
}

// NewModel constructs a capture TUI model. The reference image is optional;
// when present it is shown alongside the viewfinder and sent with guidance
// requests. An undecodable reference still works for guidance.
func NewModel(controller *capture.Controller, provider guidance.Provider, gcfg model.GuidanceConfig, reference []byte, refMIME string) *Model {
	m := &Model{
		controller: controller,
		provider:   provider,
		gcfg:       gcfg,
		reference:  reference,
		refMIME:    refMIME,
		viewW:      48,
		viewH:      16,
		items:      guidance.DefaultItems(),
	}
	if len(reference) > 0 {
		if img, _, err := image.Decode(bytes.NewReader(reference)); err == nil {
			m.refImg = img
		}
	}
	m.reticleX = m.viewW / 2
	m.reticleY = m.viewH / 2
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(previewTick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewfinder()
		return m, nil
	case tickMsg:
		return m, tick()
	case guidanceMsg:
		m.items = msg
		m.guiding = false
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) resizeViewfinder() {
	panels := 2
	if m.refImg != nil {
		panels = 3
	}
	w := m.width/panels - 4
	if w < 20 {
		w = 20
	}
	if w > 64 {
		w = 64
	}
	m.viewW = w
	m.viewH = w * 3 / 8
	m.clampReticle()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ":
		m.controller.CapturePhoto()
	case "s":
		m.controller.SavePhotoAndReopen()
	case "x":
		m.controller.DiscardPhotoAndReopen()
	case "p":
		m.controller.TogglePreview()
	case "+", "=":
		m.controller.HandlePinch(pinchStep, capture.PhaseChanged)
	case "-", "_":
		m.controller.HandlePinch(1/pinchStep, capture.PhaseChanged)
	case "z":
		m.controller.HandlePinch(1.0, capture.PhaseEnded)
	case "t":
		m.controller.HandleDoubleTap()
	case "up", "k":
		m.moveReticle(0, -1)
	case "down", "j":
		m.moveReticle(0, 1)
	case "left", "h":
		m.moveReticle(-1, 0)
	case "right", "l":
		m.moveReticle(1, 0)
	case "enter":
		m.tapToFocus(false)
	case "f":
		m.tapToFocus(true)
	case "u":
		m.controller.UnlockFocus()
	case "]":
		m.controller.HandleExposureDrag(-exposureStep, capture.PhaseChanged)
	case "[":
		m.controller.HandleExposureDrag(exposureStep, capture.PhaseChanged)
	case "e":
		m.controller.HandleExposureDrag(0, capture.PhaseEnded)
	case "r":
		m.controller.HandleOrientationChange(nextOrientation(m.controller.Snapshot().Orientation))
	case "g":
		if !m.guiding {
			m.guiding = true
			return m, m.requestGuidance()
		}
	}
	return m, nil
}

func (m *Model) moveReticle(dx, dy int) {
	m.reticleX += dx
	m.reticleY += dy
	m.clampReticle()
}

func (m *Model) clampReticle() {
	m.reticleX = clampI(m.reticleX, 0, m.viewW-1)
	m.reticleY = clampI(m.reticleY, 0, m.viewH-1)
}

// tapToFocus feeds the reticle's raw grid coordinate through the
// controller's normalization, the same path a touch tap takes.
func (m *Model) tapToFocus(longPress bool) {
	m.controller.HandleTapToFocus(
		float64(m.reticleX), float64(m.reticleY),
		float64(m.viewW-1), float64(m.viewH-1),
		longPress,
	)
}

func nextOrientation(o device.Orientation) device.Orientation {
	switch o {
	case device.OrientationPortrait:
		return device.OrientationLandscapeLeft
	case device.OrientationLandscapeLeft:
		return device.OrientationLandscapeRight
	default:
		return device.OrientationPortrait
	}
}

func (m *Model) requestGuidance() tea.Cmd {
	if len(m.reference) == 0 {
		m.guiding = false
		m.items = []model.GuidanceItem{{
			Category:  "Error",
			Direction: "N/A",
			Detail:    "No reference image loaded; pass --reference",
		}}
		return nil
	}
	req := guidance.Request{
		Reference:     m.reference,
		ReferenceMIME: m.refMIME,
		Prompt:        m.gcfg.Prompt,
		Model:         m.gcfg.Model,
		Temperature:   m.gcfg.Temperature,
	}
	snap := m.controller.Snapshot()
	if snap.Pending != nil {
		req.Capture = snap.Pending.Data
		req.CaptureMIME = "image/jpeg"
	} else {
		req.Capture = encodeFrameJPEG(m.controller.PreviewFrame(96, 72))
		req.CaptureMIME = "image/jpeg"
	}
	provider := m.provider
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), guidanceTimeout)
		defer cancel()
		return guidanceMsg(guidance.Fetch(ctx, provider, req))
	}
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
