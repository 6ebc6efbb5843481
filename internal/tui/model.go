package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/domain"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeMethodPicker
	ModeStatusPicker
	ModeDetail
	ModeHelp
)

// Model is the bubbletea model for the TUI backed by a local store
type Model struct {
	BaseModel

	// Dependencies
	store *capture.Store
}

// NewModel creates a new TUI model
func NewModel(store *capture.Store, opts Options) Model {
	return Model{
		BaseModel: newBaseModel(opts, HelpConfig{
			ExtraKeys: []string{"x          Clear captured requests"},
		}),
		store:     store,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return loadSnapshot(m.store)
}

// SnapshotMsg is sent when the request source delivers a new full snapshot
type SnapshotMsg []domain.RequestRecord

// ClearResultMsg is sent after the store has been cleared
type ClearResultMsg struct{}

// loadSnapshot returns a command that reads the current store contents
func loadSnapshot(store *capture.Store) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg(store.Snapshot())
	}
}
