package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	// HTTP status colors
	successColor  = lipgloss.Color("10") // Green
	warningColor  = lipgloss.Color("11") // Yellow
	failureColor  = lipgloss.Color("9")  // Red
	redirectColor = lipgloss.Color("14") // Cyan

	// UI colors
	headerBg    = lipgloss.Color("235")
	statusBg    = lipgloss.Color("236")
	helpBg      = lipgloss.Color("234")
	errorColor  = lipgloss.Color("9")
	dimColor    = lipgloss.Color("8")
	accentColor = lipgloss.Color("13") // Magenta
)

// Styles
var (
	// HTTP status styles
	httpSuccessStyle = lipgloss.NewStyle().
				Foreground(successColor)

	httpWarningStyle = lipgloss.NewStyle().
				Foreground(warningColor)

	httpErrorStyle = lipgloss.NewStyle().
			Foreground(failureColor).
			Bold(true)

	httpRedirectStyle = lipgloss.NewStyle().
				Foreground(redirectColor)

	// Header style
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1).
			MarginBottom(1)

	// Active criterion in the filter panel
	activeFilterStyle = lipgloss.NewStyle().
				Foreground(accentColor).
				Bold(true)

	// Cursor marker and selected picker entry
	cursorStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	// GraphQL operation tag on request lines
	operationStyle = lipgloss.NewStyle().
			Foreground(redirectColor)

	// Status bar style
	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	// Help, picker, and detail overlay style
	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Error indicator style
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(errorColor).
			Bold(true)

	// Dim style for timestamps
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)

// statusCodeStyle picks the color for a response status
func statusCodeStyle(code int) lipgloss.Style {
	switch {
	case code < 200:
		return dimStyle // Gray for unknown (0) and informational 1xx
	case code >= 500:
		return httpErrorStyle
	case code >= 400:
		return httpWarningStyle
	case code >= 300:
		return httpRedirectStyle
	default:
		return httpSuccessStyle
	}
}
