package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/charliek/netscope/internal/domain"
	"github.com/charliek/netscope/internal/filter"
)

// maxErrorDisplayLen is the maximum length of error messages in the status bar
const maxErrorDisplayLen = 60

// Options configures behavior shared by local and client mode
type Options struct {
	// SearchDebounce delays applying search keystrokes. Only the latest
	// value is applied. Zero applies every keystroke immediately.
	SearchDebounce time.Duration

	// OnSelect is called with the record under the cursor when Enter is
	// pressed. When nil, Enter opens the detail pane.
	OnSelect func(domain.RequestRecord)
}

// HelpConfig configures the help view for different modes
type HelpConfig struct {
	// TitleSuffix is appended to "Netscope - Request Inspector" (e.g., "(Client Mode)")
	TitleSuffix string
	// QuitMessage describes what happens on quit
	QuitMessage string
	// ExtraKeys are mode-specific help lines listed under "Other"
	ExtraKeys []string
}

// requestList holds the latest result pushed by the filter view
type requestList struct {
	result filter.Result
}

func (l *requestList) apply(r filter.Result) {
	l.result = r
}

// BaseModel contains shared fields for both Model and ClientModel
type BaseModel struct {
	// Filtering. The view and list are shared by every copy of the model.
	view *filter.View
	list *requestList

	// UI components
	viewport  viewport.Model
	textInput textinput.Model

	// Mode
	mode Mode

	// Selection
	cursor       int
	pickerCursor int
	detail       domain.RequestRecord

	// Search debounce: only a tick carrying the latest seq is applied
	searchDebounce time.Duration
	searchSeq      int

	onSelect func(domain.RequestRecord)

	// Auto-follow keeps the cursor on the newest request
	followMode bool

	// Dimensions
	width  int
	height int
	ready  bool

	// Help configuration
	helpConfig HelpConfig
}

// searchDebounceMsg carries a search value after the debounce delay
type searchDebounceMsg struct {
	seq  int
	text string
}

// newBaseModel creates a new BaseModel with the given options
func newBaseModel(opts Options, helpConfig HelpConfig) BaseModel {
	ti := textinput.New()
	ti.Placeholder = "Search URL or GraphQL operation..."
	ti.CharLimit = 200
	ti.Width = 40

	view := filter.NewView(nil)
	list := &requestList{}
	list.apply(view.Result())
	view.Subscribe(list.apply)

	return BaseModel{
		view:           view,
		list:           list,
		textInput:      ti,
		mode:           ModeNormal,
		searchDebounce: opts.SearchDebounce,
		onSelect:       opts.OnSelect,
		followMode:     true,
		helpConfig:     helpConfig,
	}
}

// requests returns the filtered requests currently displayed
func (b *BaseModel) requests() []domain.RequestRecord {
	return b.list.result.Requests
}

// handleWindowSize handles window resize messages
func (b *BaseModel) handleWindowSize(msg tea.WindowSizeMsg) {
	b.width = msg.Width
	b.height = msg.Height

	headerHeight := 2 // Filter panel
	footerHeight := 2 // Status bar
	verticalMargins := headerHeight + footerHeight

	viewportHeight := msg.Height - verticalMargins
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !b.ready {
		b.viewport = viewport.New(msg.Width, viewportHeight)
		b.viewport.YPosition = headerHeight
		b.ready = true
	} else {
		b.viewport.Width = msg.Width
		b.viewport.Height = viewportHeight
	}
}

// handleSnapshot replaces the source records with a new snapshot
func (b *BaseModel) handleSnapshot(records []domain.RequestRecord) {
	b.view.SetRecords(records)
	b.syncList()
}

// handleSearchDebounce applies a debounced search value unless a newer
// keystroke has superseded it
func (b *BaseModel) handleSearchDebounce(msg searchDebounceMsg) {
	if msg.seq != b.searchSeq {
		return
	}
	b.view.SetSearchText(msg.text)
	b.syncList()
}

// syncList clamps the cursor to the current result and redraws
func (b *BaseModel) syncList() {
	n := len(b.requests())
	if b.followMode {
		b.cursor = n - 1
	}
	if b.cursor >= n {
		b.cursor = n - 1
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
	b.updateViewport()
	b.ensureCursorVisible()
}

// handleSearchKey handles keys in search mode. The result updates live.
func (b *BaseModel) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		b.mode = ModeNormal
		b.textInput.Blur()
		b.textInput.SetValue("")
		b.applySearchNow("")
		return nil

	case "enter":
		b.mode = ModeNormal
		b.textInput.Blur()
		b.applySearchNow(b.textInput.Value())
		return nil
	}

	before := b.textInput.Value()
	var cmd tea.Cmd
	b.textInput, cmd = b.textInput.Update(msg)
	if b.textInput.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, b.searchChanged())
}

// searchChanged applies the current search value, or schedules it when a
// debounce is configured
func (b *BaseModel) searchChanged() tea.Cmd {
	value := b.textInput.Value()
	if b.searchDebounce <= 0 {
		b.applySearchNow(value)
		return nil
	}

	b.searchSeq++
	seq := b.searchSeq
	return tea.Tick(b.searchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq, text: value}
	})
}

// applySearchNow applies a search value and discards pending debounce ticks
func (b *BaseModel) applySearchNow(value string) {
	b.searchSeq++
	b.view.SetSearchText(value)
	b.syncList()
}

// openPicker enters a picker mode with the cursor on the current selection
func (b *BaseModel) openPicker(mode Mode) {
	b.mode = mode
	b.pickerCursor = 0

	criteria := b.view.Criteria()
	switch mode {
	case ModeMethodPicker:
		for i, opt := range domain.MethodOptions() {
			if opt.Key == criteria.Method {
				b.pickerCursor = i
			}
		}
	case ModeStatusPicker:
		for i, opt := range domain.StatusOptions() {
			if opt.Key == criteria.StatusCode {
				b.pickerCursor = i
			}
		}
	}
}

// pickerLen returns the number of entries in the open picker
func (b *BaseModel) pickerLen() int {
	if b.mode == ModeMethodPicker {
		return len(domain.MethodOptions())
	}
	return len(domain.StatusOptions())
}

// handlePickerKey handles keys in the method and status pickers
func (b *BaseModel) handlePickerKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "q":
		b.mode = ModeNormal

	case "up", "k":
		if b.pickerCursor > 0 {
			b.pickerCursor--
		}

	case "down", "j":
		if b.pickerCursor < b.pickerLen()-1 {
			b.pickerCursor++
		}

	case "home", "g":
		b.pickerCursor = 0

	case "end", "G":
		b.pickerCursor = b.pickerLen() - 1

	case "enter":
		if b.mode == ModeMethodPicker {
			b.view.SetMethod(domain.MethodOptions()[b.pickerCursor].Key)
		} else {
			b.view.SetStatusCode(domain.StatusOptions()[b.pickerCursor].Key)
		}
		b.mode = ModeNormal
		b.syncList()
	}
}

// handleDetailKey handles keys in the detail pane
func (b *BaseModel) handleDetailKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "q", "enter", "backspace":
		b.mode = ModeNormal
	}
}

// handleHelpKey handles keys in help mode
func (b *BaseModel) handleHelpKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "esc", "?", "q", "enter":
		b.mode = ModeNormal
		return true
	}
	return true
}

// handleModeKey dispatches keys for every mode except normal.
// Returns false when the model is in normal mode.
func (b *BaseModel) handleModeKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch b.mode {
	case ModeSearch:
		return true, b.handleSearchKey(msg)
	case ModeMethodPicker, ModeStatusPicker:
		b.handlePickerKey(msg)
		return true, nil
	case ModeDetail:
		b.handleDetailKey(msg)
		return true, nil
	case ModeHelp:
		b.handleHelpKey(msg)
		return true, nil
	}
	return false, nil
}

// handleNavigationKey handles common navigation keys
// Returns true if the key was handled
func (b *BaseModel) handleNavigationKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "?":
		b.mode = ModeHelp
		return true

	case "/":
		b.mode = ModeSearch
		b.textInput.SetValue(b.view.Criteria().SearchText)
		b.textInput.CursorEnd()
		b.textInput.Focus()
		return true

	case "m":
		b.openPicker(ModeMethodPicker)
		return true

	case "s":
		b.openPicker(ModeStatusPicker)
		return true

	case "esc":
		// Clear all criteria
		b.searchSeq++
		b.textInput.SetValue("")
		b.view.Reset()
		b.syncList()
		return true

	case "enter":
		b.selectCurrent()
		return true

	case "up", "k":
		b.moveCursor(-1)
		b.followMode = false
		return true

	case "down", "j":
		b.moveCursor(1)
		return true

	case "pgup":
		b.moveCursor(-b.pageSize())
		b.followMode = false
		return true

	case "pgdown":
		b.moveCursor(b.pageSize())
		return true

	case "home", "g":
		b.cursor = 0
		b.followMode = false
		b.syncList()
		return true

	case "end", "G":
		b.followMode = true
		b.syncList()
		return true

	case "F":
		b.followMode = !b.followMode
		b.syncList()
		return true
	}

	return false
}

// selectCurrent fires the selection callback for the record under the cursor
func (b *BaseModel) selectCurrent() {
	record, ok := b.selected()
	if !ok {
		return
	}
	if b.onSelect != nil {
		b.onSelect(record)
		return
	}
	b.detail = record
	b.mode = ModeDetail
}

// selected returns the record under the cursor
func (b *BaseModel) selected() (domain.RequestRecord, bool) {
	requests := b.requests()
	if b.cursor < 0 || b.cursor >= len(requests) {
		return domain.RequestRecord{}, false
	}
	return requests[b.cursor], true
}

// moveCursor moves the cursor by delta, re-enabling follow at the last row
func (b *BaseModel) moveCursor(delta int) {
	n := len(b.requests())
	if n == 0 {
		return
	}
	b.cursor += delta
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor >= n-1 {
		b.cursor = n - 1
		b.followMode = true
	}
	b.updateViewport()
	b.ensureCursorVisible()
}

func (b *BaseModel) pageSize() int {
	if b.viewport.Height > 1 {
		return b.viewport.Height / 2
	}
	return 1
}

// ensureCursorVisible scrolls the viewport so the cursor row is shown
func (b *BaseModel) ensureCursorVisible() {
	if !b.ready || b.viewport.Height <= 0 {
		return
	}
	if b.cursor < b.viewport.YOffset {
		b.viewport.SetYOffset(b.cursor)
	} else if b.cursor >= b.viewport.YOffset+b.viewport.Height {
		b.viewport.SetYOffset(b.cursor - b.viewport.Height + 1)
	}
}

// updateViewport updates the viewport content
func (b *BaseModel) updateViewport() {
	requests := b.requests()
	lines := make([]string, 0, len(requests))
	for i, req := range requests {
		lines = append(lines, b.formatRequest(req, i == b.cursor))
	}

	b.viewport.SetContent(strings.Join(lines, "\n"))
}

// formatRequest formats a single request for display
func (b *BaseModel) formatRequest(req domain.RequestRecord, selected bool) string {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("> ")
	}

	// Format timestamp
	ts := "--:--:--"
	if !req.Timestamp.IsZero() {
		ts = req.Timestamp.Format("15:04:05")
	}

	// Format method with padding (7 chars to accommodate DELETE/OPTIONS)
	method := fmt.Sprintf("%-7s", req.Method)

	status := statusCodeStyle(req.StatusCode).Render(fmt.Sprintf("%3d", req.StatusCode))

	// Format duration with overflow handling
	durationMs := req.Duration.Milliseconds()
	var duration string
	if durationMs > 9999 {
		duration = "9999+"
	} else {
		duration = fmt.Sprintf("%5d", durationMs)
	}

	target := req.URL
	if req.HasGQLOperation() {
		target += " " + operationStyle.Render("["+req.GQLOperation+"]")
	}

	return fmt.Sprintf("%s%s  %s %s %sms  %s",
		marker,
		dimStyle.Render(ts),
		method,
		status,
		dimStyle.Render(duration),
		target,
	)
}

// filterPanel renders the current criteria header
func (b *BaseModel) filterPanel() string {
	criteria := b.view.Criteria()

	search := dimStyle.Render("(none)")
	if criteria.NormalizedSearch() != "" {
		search = activeFilterStyle.Render(fmt.Sprintf("%q", criteria.SearchText))
	}

	method := domain.MethodLabel(criteria.Method)
	if criteria.Method != domain.AnyMethod {
		method = activeFilterStyle.Render(method)
	}

	status := domain.StatusLabel(criteria.StatusCode)
	if criteria.StatusCode != domain.AnyStatus {
		status = activeFilterStyle.Render(status)
	}

	items := []string{
		"Search: " + search,
		"Method: " + method,
		"Status: " + status,
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(items, "   "))
	return headerStyle.Render(header)
}

// statusBar renders the bottom status bar
func (b *BaseModel) statusBar(extraInfo string) string {
	var left, right string

	switch b.mode {
	case ModeSearch:
		left = "Search: " + b.textInput.View()
	default:
		if !b.view.Criteria().IsEmpty() {
			left = "Filters active (ESC to clear)"
		} else {
			left = "/ search | m method | s status | ? help"
		}
		if extraInfo != "" {
			left += " | " + extraInfo
		}
	}

	followIndicator := "[FOLLOW]"
	if !b.followMode {
		followIndicator = "[PAUSED]"
	}
	right = fmt.Sprintf("%s %d/%d requests", followIndicator, len(b.requests()), b.list.result.Total)

	// Calculate widths
	leftWidth := b.width - len(right) - 4
	if leftWidth < 0 {
		leftWidth = 0
	}

	leftPart := statusStyle.Width(leftWidth).Render(left)
	rightPart := statusStyle.Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

// mainView renders the main TUI layout
func (b *BaseModel) mainView(extraStatusInfo string) string {
	var sb strings.Builder

	sb.WriteString(b.filterPanel())
	sb.WriteString("\n")

	if len(b.requests()) == 0 {
		sb.WriteString(dimStyle.Render("  No matching requests"))
		sb.WriteString(strings.Repeat("\n", max(b.viewport.Height-1, 0)))
	} else {
		sb.WriteString(b.viewport.View())
	}
	sb.WriteString("\n")

	sb.WriteString(b.statusBar(extraStatusInfo))

	return sb.String()
}

// pickerView renders the method or status picker overlay
func (b *BaseModel) pickerView() string {
	var title string
	var labels []string

	if b.mode == ModeMethodPicker {
		title = "Filter by HTTP method"
		for _, opt := range domain.MethodOptions() {
			labels = append(labels, opt.Label)
		}
	} else {
		title = "Filter by HTTP status"
		for _, opt := range domain.StatusOptions() {
			labels = append(labels, opt.Label)
		}
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for i, label := range labels {
		if i == b.pickerCursor {
			sb.WriteString(cursorStyle.Render("> " + label))
		} else {
			sb.WriteString("  " + label)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("↑/↓ select, Enter apply, Esc cancel"))

	return helpStyle.Render(sb.String())
}

// detailView renders the detail pane for the selected request
func (b *BaseModel) detailView() string {
	r := b.detail

	ts := "-"
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.Format(time.RFC3339Nano)
	}
	op := "-"
	if r.HasGQLOperation() {
		op = r.GQLOperation
	}
	status := "-"
	if r.HasStatus() {
		status = statusCodeStyle(r.StatusCode).Render(r.StatusText())
	}

	detail := fmt.Sprintf(`Request %s

  Time       %s
  Method     %s
  URL        %s
  Operation  %s
  Status     %s
  Duration   %s

Press Esc to go back...`,
		r.ID, ts, r.Method, r.URL, op, status, r.Duration)

	return helpStyle.Render(detail)
}

// helpView renders the help overlay
func (b *BaseModel) helpView() string {
	title := "Netscope - Request Inspector"
	if b.helpConfig.TitleSuffix != "" {
		title += " " + b.helpConfig.TitleSuffix
	}

	quitMsg := "Quit"
	if b.helpConfig.QuitMessage != "" {
		quitMsg = b.helpConfig.QuitMessage
	}

	var extraKeys string
	for _, line := range b.helpConfig.ExtraKeys {
		extraKeys += "  " + line + "\n"
	}

	help := fmt.Sprintf(`
%s

Navigation:
  j/↓        Move down
  k/↑        Move up (pauses auto-follow)
  g/Home     Go to first request (pauses auto-follow)
  G/End      Go to newest request (resumes auto-follow)
  PgUp/PgDn  Half page up/down
  F          Toggle auto-follow mode
  Enter      Show request details

Filtering:
  /          Search URL or GraphQL operation
  m          Pick HTTP method
  s          Pick HTTP status
  ESC        Clear all filters

Other:
%s  ?          Toggle help
  q/Ctrl+C   %s

Press any key to close help...
`, title, extraKeys, quitMsg)

	return helpStyle.Render(help)
}

// truncateError truncates an error message to maxLen characters
func truncateError(err error, maxLen int) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxLen {
		return msg[:maxLen-3] + "..."
	}
	return msg
}
