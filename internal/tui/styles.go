package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/conneroisu/formify/internal/components"
)

const panelWidth = 40

// Styles are the lipgloss styles of the terminal widget. The palette is the
// one the HTML widget uses.
type Styles struct {
	Panel         lipgloss.Style
	Title         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	Toggler       lipgloss.Style
	Loader        lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	button := lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(lipgloss.Color("#f9fafb"))

	return Styles{
		Panel: lipgloss.NewStyle().
			Width(panelWidth).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(components.ColorPanel)),
		Title: lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorSuccess)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorWarning)),
		Button:  button.Background(lipgloss.Color(components.ColorPanel)),
		ButtonFocused: button.
			Background(lipgloss.Color(components.ColorButton)).
			Bold(true),
		Toggler: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#f9fafb")).
			Background(lipgloss.Color(components.ColorButton)),
		Loader: lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorLoader)),
	}
}
