package tui

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.BaseModel.render("")
}

// render picks the overlay for the current mode or the main layout
func (b *BaseModel) render(statusInfo string) string {
	switch b.mode {
	case ModeHelp:
		return b.helpView()
	case ModeMethodPicker, ModeStatusPicker:
		return b.pickerView()
	case ModeDetail:
		return b.detailView()
	default:
		return b.mainView(statusInfo)
	}
}
