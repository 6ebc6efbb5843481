package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/domain"
)

// ClientModel is the TUI model for client mode. It streams the unfiltered
// collection from a server and filters locally.
type ClientModel struct {
	BaseModel

	ctx    context.Context
	client TUIClient
	stream <-chan api.RequestsResponse
	errs   <-chan error

	connected       bool
	connectionError error // Last stream error, nil while connected or connecting
}

// ClientErrorMsg is sent when the API stream cannot be opened or ends
type ClientErrorMsg struct {
	Err error
}

// streamOpenedMsg carries a freshly opened snapshot stream
type streamOpenedMsg struct {
	ch   <-chan api.RequestsResponse
	errs <-chan error
}

// NewClientModel creates a client mode model. The stream is opened by Init
// and lives until ctx is cancelled.
func NewClientModel(ctx context.Context, client TUIClient, opts Options) ClientModel {
	return ClientModel{
		BaseModel: newBaseModel(opts, HelpConfig{
			TitleSuffix: "(Client Mode)",
			QuitMessage: "Quit (server continues running)",
			ExtraKeys:   []string{"r          Reconnect after the stream drops"},
		}),
		ctx:    ctx,
		client: client,
	}
}

// Init opens the stream
func (m ClientModel) Init() tea.Cmd {
	return openStream(m.ctx, m.client)
}

// openStream subscribes to every snapshot; criteria never reach the server
func openStream(ctx context.Context, client TUIClient) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ch, errs, err := client.StreamRequestsChannel(ctx, domain.DefaultCriteria())
		if err != nil {
			return ClientErrorMsg{Err: err}
		}
		return streamOpenedMsg{ch: ch, errs: errs}
	}
}

// nextSnapshot blocks until the stream delivers or closes. A closed stream
// reports the error it failed with, if any.
func nextSnapshot(ctx context.Context, ch <-chan api.RequestsResponse, errs <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		resp, ok := <-ch
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case err := <-errs:
				return ClientErrorMsg{Err: err}
			default:
			}
			return ClientErrorMsg{Err: errStreamClosed}
		}
		return SnapshotMsg(responseRecords(resp))
	}
}

// Update handles messages
func (m ClientModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.syncList()

	case streamOpenedMsg:
		m.stream = msg.ch
		m.errs = msg.errs
		cmds = append(cmds, nextSnapshot(m.ctx, m.stream, m.errs))

	case SnapshotMsg:
		m.connected = true
		m.connectionError = nil
		m.handleSnapshot([]domain.RequestRecord(msg))
		cmds = append(cmds, nextSnapshot(m.ctx, m.stream, m.errs))

	case searchDebounceMsg:
		m.handleSearchDebounce(msg)

	case ClientErrorMsg:
		m.connected = false
		m.connectionError = msg.Err
		m.stream = nil
		m.errs = nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m ClientModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if handled, cmd := m.BaseModel.handleModeKey(msg); handled {
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		if m.connectionError == nil {
			return m, nil
		}
		m.connectionError = nil
		return m, openStream(m.ctx, m.client)
	}

	m.BaseModel.handleNavigationKey(msg)
	return m, nil
}

// View renders the TUI
func (m ClientModel) View() string {
	if !m.ready {
		return "Connecting to netscope..."
	}

	var statusInfo string
	switch {
	case m.connectionError != nil:
		statusInfo = errorStyle.Render("Disconnected: " + truncateError(m.connectionError, maxErrorDisplayLen) + " (r to reconnect)")
	case m.connected:
		statusInfo = "Connected via API"
	default:
		statusInfo = "Connecting..."
	}
	return m.BaseModel.render(statusInfo)
}
