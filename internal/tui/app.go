package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/domain"
)

// errStreamClosed is reported when the API closes the request stream
var errStreamClosed = errors.New("request stream connection closed")

// Run starts the TUI application over a local store
func Run(store *capture.Store, opts Options) error {
	model := NewModel(store, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())

	// Subscribe before the program starts so no change is missed
	sub := store.Subscribe()
	go forwardSnapshots(ctx, p, sub.Ch)

	_, runErr := p.Run()

	// Cleanup: cancel context and unsubscribe
	cancel()
	store.Unsubscribe(sub.ID)

	return runErr
}

// forwardSnapshots forwards store snapshots from the subscription channel to the TUI program.
// It exits when the context is cancelled or the channel is closed.
func forwardSnapshots(ctx context.Context, p *tea.Program, ch <-chan []domain.RequestRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			p.Send(SnapshotMsg(snap))
		}
	}
}

// TUIClient is the interface for TUI client mode API interactions.
type TUIClient interface {
	StreamRequestsChannel(ctx context.Context, criteria domain.FilterCriteria) (<-chan api.RequestsResponse, <-chan error, error)
}

// RunClient starts the TUI application in client mode (connected via API)
func RunClient(client TUIClient, opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(NewClientModel(ctx, client, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// responseRecords converts a streamed snapshot back into domain records
func responseRecords(resp api.RequestsResponse) []domain.RequestRecord {
	records := make([]domain.RequestRecord, len(resp.Requests))
	for i, r := range resp.Requests {
		records[i] = r.ToRecord()
	}
	return records
}
