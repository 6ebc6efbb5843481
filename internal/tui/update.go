package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/netscope/internal/domain"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.syncList()

	case SnapshotMsg:
		m.handleSnapshot([]domain.RequestRecord(msg))

	case searchDebounceMsg:
		m.handleSearchDebounce(msg)

	case ClearResultMsg:
		cmds = append(cmds, loadSnapshot(m.store))
	}

	// Handle viewport updates
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle mode-specific keys first
	if handled, cmd := m.BaseModel.handleModeKey(msg); handled {
		return m, cmd
	}

	// Normal mode keys
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "x":
		// Drop every captured request from the store
		store := m.store
		return m, func() tea.Msg {
			store.Clear()
			return ClearResultMsg{}
		}
	}

	// Handle common navigation keys
	if m.BaseModel.handleNavigationKey(msg) {
		return m, nil
	}

	return m, nil
}
