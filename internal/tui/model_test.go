package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/netscope/internal/api"
	"github.com/charliek/netscope/internal/capture"
	"github.com/charliek/netscope/internal/domain"
)

func sampleRecords() []domain.RequestRecord {
	return []domain.RequestRecord{
		{ID: "1", Timestamp: time.Now(), URL: "/api/users", Method: "GET", StatusCode: 200, Duration: 12 * time.Millisecond},
		{ID: "2", Timestamp: time.Now(), URL: "/api/orders", Method: "POST", StatusCode: 500, Duration: 40 * time.Millisecond},
		{ID: "g", Timestamp: time.Now(), URL: "/graphql", GQLOperation: "GetUser", Method: "POST", StatusCode: 200},
	}
}

// newTestModel creates a Model with an empty store.
// This reduces boilerplate in tests that need a basic model.
func newTestModel() Model {
	return NewModel(capture.NewStore(100), Options{})
}

// newLoadedModel creates a sized Model holding the sample records
func newLoadedModel(t *testing.T, opts Options) Model {
	t.Helper()
	model := NewModel(capture.NewStore(100), opts)
	m := update(t, model, tea.WindowSizeMsg{Width: 120, Height: 30})
	return update(t, m, SnapshotMsg(sampleRecords()))
}

func update(t *testing.T, model Model, msg tea.Msg) Model {
	t.Helper()
	newModel, _ := model.Update(msg)
	m, ok := newModel.(Model)
	require.True(t, ok)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, model Model, text string) Model {
	t.Helper()
	for _, r := range text {
		model = update(t, model, runes(string(r)))
	}
	return model
}

func visibleIDs(m Model) []string {
	out := make([]string, 0, len(m.requests()))
	for _, r := range m.requests() {
		out = append(out, r.ID)
	}
	return out
}

func TestNewModel(t *testing.T) {
	model := newTestModel()

	assert.Equal(t, ModeNormal, model.mode)
	assert.False(t, model.ready)
	assert.Empty(t, model.requests())
	assert.NotNil(t, model.requests())
	assert.True(t, model.view.Fresh())
}

func TestModel_Init_LoadsStoreSnapshot(t *testing.T) {
	store := capture.NewStore(100)
	store.RecordAll(sampleRecords())
	model := NewModel(store, Options{})

	cmd := model.Init()
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, SnapshotMsg{}, msg)

	m := update(t, model, msg)
	assert.Equal(t, []string{"1", "2", "g"}, visibleIDs(m))
}

func TestModel_HandleKey_Quit(t *testing.T) {
	model := newTestModel()

	// Test quit with 'q'
	_, cmd := model.Update(runes("q"))
	assert.NotNil(t, cmd)
}

func TestModel_HandleKey_ModeSwitch(t *testing.T) {
	tests := []struct {
		key  string
		mode Mode
	}{
		{"?", ModeHelp},
		{"/", ModeSearch},
		{"m", ModeMethodPicker},
		{"s", ModeStatusPicker},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := update(t, newTestModel(), runes(tt.key))
			assert.Equal(t, tt.mode, m.mode)

			m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
			assert.Equal(t, ModeNormal, m.mode)
		})
	}
}

func TestModel_SnapshotRecomputes(t *testing.T) {
	m := newLoadedModel(t, Options{})
	assert.Equal(t, []string{"1", "2", "g"}, visibleIDs(m))

	m = update(t, m, SnapshotMsg(sampleRecords()[:1]))
	assert.Equal(t, []string{"1"}, visibleIDs(m))
	assert.Equal(t, m.view.Result(), m.list.result, "list receives every recomputed result")
}

func TestModel_SearchIsLive(t *testing.T) {
	m := newLoadedModel(t, Options{})

	m = update(t, m, runes("/"))
	m = typeText(t, m, "USER")

	assert.Equal(t, ModeSearch, m.mode)
	assert.Equal(t, []string{"1", "g"}, visibleIDs(m), "url and graphql operation both match")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "USER", m.view.Criteria().SearchText)
	assert.Equal(t, []string{"1", "g"}, visibleIDs(m))
}

func TestModel_SearchEscClears(t *testing.T) {
	m := newLoadedModel(t, Options{})

	m = update(t, m, runes("/"))
	m = typeText(t, m, "orders")
	require.Equal(t, []string{"2"}, visibleIDs(m))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, m.view.Criteria().SearchText)
	assert.Equal(t, []string{"1", "2", "g"}, visibleIDs(m))
}

func TestModel_SearchDebounceAppliesLatestOnly(t *testing.T) {
	m := newLoadedModel(t, Options{SearchDebounce: time.Second})

	m = update(t, m, runes("/"))
	m = typeText(t, m, "or")

	// Nothing applied until the debounce fires
	assert.Equal(t, []string{"1", "2", "g"}, visibleIDs(m))
	assert.Equal(t, 2, m.searchSeq)

	// A tick for the first keystroke is stale
	m = update(t, m, searchDebounceMsg{seq: 1, text: "o"})
	assert.Empty(t, m.view.Criteria().SearchText)

	m = update(t, m, searchDebounceMsg{seq: 2, text: "or"})
	assert.Equal(t, "or", m.view.Criteria().SearchText)
	assert.Equal(t, []string{"2"}, visibleIDs(m))
}

func TestModel_SearchDebounceEnterAppliesImmediately(t *testing.T) {
	m := newLoadedModel(t, Options{SearchDebounce: time.Second})

	m = update(t, m, runes("/"))
	m = typeText(t, m, "graph")
	pending := m.searchSeq

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"g"}, visibleIDs(m))

	// The pending tick no longer applies
	m = update(t, m, searchDebounceMsg{seq: pending, text: "gr"})
	assert.Equal(t, "graph", m.view.Criteria().SearchText)
}

func TestModel_MethodPicker(t *testing.T) {
	m := newLoadedModel(t, Options{})

	m = update(t, m, runes("m"))
	require.Equal(t, ModeMethodPicker, m.mode)
	assert.Equal(t, len(domain.MethodOptions())-1, m.pickerCursor, "cursor starts on the current selection")

	m = update(t, m, runes("g"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "GET", m.view.Criteria().Method)
	assert.Equal(t, []string{"1"}, visibleIDs(m))

	// Reopening starts on GET, moving to POST
	m = update(t, m, runes("m"))
	assert.Equal(t, 0, m.pickerCursor)
	m = update(t, m, runes("j"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"2", "g"}, visibleIDs(m))
}

func TestModel_StatusPicker(t *testing.T) {
	m := newLoadedModel(t, Options{})

	m = update(t, m, runes("s"))
	require.Equal(t, ModeStatusPicker, m.mode)

	// 100, 200, 201, 203, 206, 400, 401, 403, 500
	m = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	for i := 0; i < 8; i++ {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 500, m.view.Criteria().StatusCode)
	assert.Equal(t, []string{"2"}, visibleIDs(m))
}

func TestModel_PickerBounds(t *testing.T) {
	m := newLoadedModel(t, Options{})

	m = update(t, m, runes("m"))
	m = update(t, m, runes("G"))
	m = update(t, m, runes("j"))
	assert.Equal(t, len(domain.MethodOptions())-1, m.pickerCursor)

	m = update(t, m, runes("g"))
	m = update(t, m, runes("k"))
	assert.Equal(t, 0, m.pickerCursor)
}

func TestModel_PickerEscKeepsCriteria(t *testing.T) {
	m := newLoadedModel(t, Options{})

	m = update(t, m, runes("m"))
	m = update(t, m, runes("g"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, domain.AnyMethod, m.view.Criteria().Method)
	assert.Len(t, visibleIDs(m), 3)
}

func TestModel_HandleKey_EscClearsFilters(t *testing.T) {
	m := newLoadedModel(t, Options{})
	m.view.SetCriteria(domain.FilterCriteria{SearchText: "api", Method: "POST", StatusCode: 500})
	m.textInput.SetValue("api")
	require.Equal(t, []string{"2"}, visibleIDs(m))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})

	assert.True(t, m.view.Criteria().IsEmpty())
	assert.Empty(t, m.textInput.Value())
	assert.Equal(t, []string{"1", "2", "g"}, visibleIDs(m))
}

func TestModel_EnterOpensDetail(t *testing.T) {
	m := newLoadedModel(t, Options{})

	// Following keeps the cursor on the newest request
	require.Equal(t, 2, m.cursor)
	m = update(t, m, runes("k"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeDetail, m.mode)
	assert.Equal(t, "2", m.detail.ID)
	assert.Contains(t, m.View(), "/api/orders")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestModel_EnterFiresOnSelect(t *testing.T) {
	var selected []domain.RequestRecord
	m := newLoadedModel(t, Options{OnSelect: func(r domain.RequestRecord) {
		selected = append(selected, r)
	}})

	m = update(t, m, runes("g"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeNormal, m.mode)
	require.Len(t, selected, 1)
	assert.Equal(t, "1", selected[0].ID)
}

func TestModel_EnterWithNoRequests(t *testing.T) {
	called := false
	model := NewModel(capture.NewStore(10), Options{OnSelect: func(domain.RequestRecord) { called = true }})

	m := update(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, called)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestModel_CursorClampedWhenResultShrinks(t *testing.T) {
	m := newLoadedModel(t, Options{})
	m = update(t, m, runes("F")) // pause follow
	require.Equal(t, 2, m.cursor)

	m = update(t, m, runes("/"))
	m = typeText(t, m, "users")
	assert.Equal(t, []string{"1"}, visibleIDs(m))
	assert.Equal(t, 0, m.cursor)
}

func TestModel_ClearStore(t *testing.T) {
	store := capture.NewStore(100)
	store.RecordAll(sampleRecords())
	model := NewModel(store, Options{})

	_, cmd := model.Update(runes("x"))
	require.NotNil(t, cmd)
	assert.IsType(t, ClearResultMsg{}, cmd())
	assert.Equal(t, 0, store.Count())
}

func TestFollowModeDefaults(t *testing.T) {
	model := newTestModel()

	// followMode should default to true
	assert.True(t, model.followMode)
}

func TestFollowModeDisabledOnScrollUp(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"k key", runes("k")},
		{"up arrow", tea.KeyMsg{Type: tea.KeyUp}},
		{"g key", runes("g")},
		{"home key", tea.KeyMsg{Type: tea.KeyHome}},
		{"pgup key", tea.KeyMsg{Type: tea.KeyPgUp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLoadedModel(t, Options{})
			assert.True(t, m.followMode) // starts true

			m = update(t, m, tt.key)

			assert.False(t, m.followMode, "followMode should be false after %s", tt.name)
		})
	}
}

func TestFollowModeEnabledOnGoToBottom(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"G key", runes("G")},
		{"end key", tea.KeyMsg{Type: tea.KeyEnd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLoadedModel(t, Options{})
			m.followMode = false
			m.cursor = 0

			m = update(t, m, tt.key)

			assert.True(t, m.followMode, "followMode should be true after %s", tt.name)
			assert.Equal(t, 2, m.cursor)
		})
	}
}

func TestFollowModeTracksNewRequests(t *testing.T) {
	m := newLoadedModel(t, Options{})

	more := append(sampleRecords(), domain.RequestRecord{ID: "4", URL: "/api/new", Method: "GET", StatusCode: 201})
	m = update(t, m, SnapshotMsg(more))
	assert.Equal(t, 3, m.cursor)

	m = update(t, m, runes("F"))
	m = update(t, m, SnapshotMsg(append(more, domain.RequestRecord{ID: "5", URL: "/api/newer", Method: "GET"})))
	assert.Equal(t, 3, m.cursor, "paused cursor stays put")
}

func TestFollowModeToggle(t *testing.T) {
	model := newTestModel()
	assert.True(t, model.followMode) // starts true

	m := update(t, model, runes("F"))
	assert.False(t, m.followMode)

	m = update(t, m, runes("F"))
	assert.True(t, m.followMode)
}

func TestModel_View(t *testing.T) {
	assert.Equal(t, "Initializing...", newTestModel().View())

	m := newLoadedModel(t, Options{})
	view := m.View()

	assert.Contains(t, view, "Method: All HTTP Methods")
	assert.Contains(t, view, "Status: All HTTP Statuses")
	assert.Contains(t, view, "/api/users")
	assert.Contains(t, view, "3/3 requests")

	m = update(t, m, runes("s"))
	assert.Contains(t, m.View(), "Filter by HTTP status")
	assert.Contains(t, m.View(), "504")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	m = update(t, m, runes("?"))
	assert.Contains(t, m.View(), "Netscope - Request Inspector")
}

func TestModel_ViewNoMatches(t *testing.T) {
	m := newLoadedModel(t, Options{})
	m = update(t, m, runes("/"))
	m = typeText(t, m, "nothing")

	view := m.View()
	assert.Contains(t, view, "No matching requests")
	assert.Contains(t, view, "0/3 requests")
}

func TestFormatRequest_StatusCode0(t *testing.T) {
	model := newTestModel()

	req := domain.RequestRecord{
		Timestamp:  time.Now(),
		Method:     "GET",
		URL:        "/test",
		StatusCode: 0,
		Duration:   100 * time.Millisecond,
	}

	formatted := model.formatRequest(req, false)

	assert.Contains(t, formatted, "GET    ") // 7 chars total
	assert.Contains(t, formatted, "/test")
	assert.Contains(t, formatted, "  0") // Status code 0 with 3-char right-aligned padding
	assert.Contains(t, formatted, "  100")
}

func TestFormatRequest_DurationOverflow(t *testing.T) {
	model := newTestModel()

	req := domain.RequestRecord{
		Method:     "POST",
		URL:        "/slow-endpoint",
		StatusCode: 200,
		Duration:   15 * time.Second,
	}

	formatted := model.formatRequest(req, false)

	assert.Contains(t, formatted, "9999+")
	assert.Contains(t, formatted, "POST   ")
	assert.Contains(t, formatted, "--:--:--")
}

func TestFormatRequest_GraphQLAndCursor(t *testing.T) {
	model := newTestModel()

	req := domain.RequestRecord{Method: "POST", URL: "/graphql", GQLOperation: "GetUser", StatusCode: 200}

	assert.Contains(t, model.formatRequest(req, false), "[GetUser]")
	assert.Contains(t, model.formatRequest(req, true), "> ")
	assert.NotContains(t, model.formatRequest(req, false), ">")
}

func TestTruncateError(t *testing.T) {
	assert.Empty(t, truncateError(nil, 10))
	assert.Equal(t, "short", truncateError(errors.New("short"), 10))
	assert.Equal(t, "abcdefg...", truncateError(errors.New("abcdefghijklmnop"), 10))
}

// fakeClient hands out pre-filled streams, or fails when err is set
type fakeClient struct {
	err      error
	opened   int
	criteria domain.FilterCriteria
	ch       chan api.RequestsResponse
	errs     chan error
}

func (f *fakeClient) StreamRequestsChannel(ctx context.Context, criteria domain.FilterCriteria) (<-chan api.RequestsResponse, <-chan error, error) {
	f.opened++
	f.criteria = criteria
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.ch, f.errs, nil
}

func TestClientModel(t *testing.T) {
	newModel, _ := NewClientModel(context.Background(), nil, Options{}).Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m := newModel.(ClientModel)
	assert.Contains(t, m.View(), "Connecting...")

	newModel, _ = m.Update(SnapshotMsg(sampleRecords()))
	m = newModel.(ClientModel)
	assert.True(t, m.connected)
	assert.Len(t, m.requests(), 3)
	assert.Contains(t, m.View(), "Connected via API")

	newModel, _ = m.Update(ClientErrorMsg{Err: errStreamClosed})
	m = newModel.(ClientModel)
	assert.False(t, m.connected)
	assert.Contains(t, m.View(), "Disconnected")

	newModel, _ = m.Update(runes("m"))
	m = newModel.(ClientModel)
	assert.Equal(t, ModeMethodPicker, m.mode)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	assert.Nil(t, cmd)
}

func TestClientModel_Stream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{ch: make(chan api.RequestsResponse, 1)}
	m := NewClientModel(ctx, client, Options{})
	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = newModel.(ClientModel)

	// Init opens an unfiltered stream
	opened := m.Init()()
	require.IsType(t, streamOpenedMsg{}, opened)
	assert.Equal(t, 1, client.opened)
	assert.Equal(t, domain.DefaultCriteria(), client.criteria)

	newModel, cmd := m.Update(opened)
	m = newModel.(ClientModel)
	require.NotNil(t, cmd)

	// Criteria set before the first snapshot still apply locally
	m.view.SetMethod("POST")

	client.ch <- api.ToRequestsResponse(sampleRecords(), 3, domain.DefaultCriteria())
	snapshot := cmd()
	require.IsType(t, SnapshotMsg{}, snapshot)

	newModel, cmd = m.Update(snapshot)
	m = newModel.(ClientModel)
	assert.True(t, m.connected)
	assert.Len(t, m.view.Records(), 3)
	assert.Len(t, m.requests(), 2)
	require.NotNil(t, cmd, "the next snapshot is awaited")

	close(client.ch)
	closed := cmd()
	assert.Equal(t, ClientErrorMsg{Err: errStreamClosed}, closed)
}

func TestClientModel_Reconnect(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	m := NewClientModel(context.Background(), client, Options{})
	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 30})
	m = newModel.(ClientModel)

	// r does nothing while there is no error
	_, cmd := m.Update(runes("r"))
	assert.Nil(t, cmd)

	failed := m.Init()()
	newModel, _ = m.Update(failed)
	m = newModel.(ClientModel)
	assert.Contains(t, m.View(), "connection refused")
	assert.Contains(t, m.View(), "r to reconnect")

	client.err = nil
	client.ch = make(chan api.RequestsResponse)
	newModel, cmd = m.Update(runes("r"))
	m = newModel.(ClientModel)
	require.NotNil(t, cmd)
	assert.Nil(t, m.connectionError)
	assert.Contains(t, m.View(), "Connecting...")

	assert.IsType(t, streamOpenedMsg{}, cmd())
	assert.Equal(t, 2, client.opened)
}

func TestNextSnapshot_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan api.RequestsResponse)
	cancel()
	close(ch)

	assert.Nil(t, nextSnapshot(ctx, ch, nil)())
	assert.Nil(t, nextSnapshot(ctx, nil, nil))
}

func TestClientModel_StreamError(t *testing.T) {
	client := &fakeClient{
		ch:   make(chan api.RequestsResponse),
		errs: make(chan error, 1),
	}
	m := NewClientModel(context.Background(), client, Options{})
	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 30})
	m = newModel.(ClientModel)

	newModel, cmd := m.Update(m.Init()())
	m = newModel.(ClientModel)
	require.NotNil(t, cmd)

	dropped := errors.New("UNAUTHORIZED: invalid token")
	client.errs <- dropped
	close(client.ch)

	msg := cmd()
	assert.Equal(t, ClientErrorMsg{Err: dropped}, msg)

	newModel, _ = m.Update(msg)
	m = newModel.(ClientModel)
	assert.Contains(t, m.View(), "invalid token")
	assert.Nil(t, m.errs)
}

func TestResponseRecords(t *testing.T) {
	resp := api.ToRequestsResponse(sampleRecords(), 3, domain.DefaultCriteria())

	records := responseRecords(resp)

	require.Len(t, records, 3)
	assert.Equal(t, "g", records[2].ID)
	assert.Equal(t, "GetUser", records[2].GQLOperation)
	assert.Equal(t, 40*time.Millisecond, records[1].Duration)
}
