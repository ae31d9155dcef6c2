package intervention

import "github.com/charmbracelet/lipgloss"

var signalStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FF5F5F")).
	Bold(true)

// TerminalHighlight colors signal names for terminal output.
func TerminalHighlight(s string) string {
	return signalStyle.Render(s)
}
