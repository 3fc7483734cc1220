// Package libraryui provides the Bubble Tea photo library browser.
package libraryui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/echosnap/internal/library"
	"github.com/verte-zerg/echosnap/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea library browser.
type Model struct {
	lib       *library.Library
	cfg       model.LibraryQuery
	shots     []model.Shot
	shotTable table.Model
	errMsg    string

	width  int
	height int
}

// NewModel constructs a library browser model.
func NewModel(lib *library.Library, cfg model.LibraryQuery) *Model {
	m := &Model{lib: lib, cfg: cfg}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	shots, err := m.lib.List(context.Background(), m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to list shots: %v", err)
		return
	}
	m.shots = shots
	m.shotTable = buildShotTable(shots, m.height)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.shotTable = buildShotTable(m.shots, m.height)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.shotTable, cmd = m.shotTable.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	header := titleStyle.Render("Photo library")
	footer := footerStyle.Render(fmt.Sprintf("%d shots · q quit", len(m.shots)))
	return header + "\n" + borderStyle.Render(m.shotTable.View()) + "\n" + footer
}

func buildShotTable(shots []model.Shot, height int) table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Taken", Width: 19},
		{Title: "Size", Width: 9},
		{Title: "Zoom", Width: 5},
		{Title: "EV", Width: 5},
		{Title: "Orientation", Width: 15},
	}
	rows := make([]table.Row, 0, len(shots))
	for _, shot := range shots {
		rows = append(rows, shotRow(shot))
	}
	tableHeight := height - 5
	if tableHeight < 3 {
		tableHeight = 10
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(tableHeight),
	)
	return t
}

func shotRow(shot model.Shot) table.Row {
	return table.Row{
		fmt.Sprintf("%d", shot.ID),
		shot.TakenAt.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%dx%d", shot.Width, shot.Height),
		fmt.Sprintf("%.1fx", shot.ZoomFactor),
		fmt.Sprintf("%+.1f", shot.ExposureBias),
		shot.Orientation,
	}
}
