package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// ContentWidth returns the inner width used for page sections so that
// stacked cards line up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 96 {
		w = 96
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded-border box of width cw with an optional
// heading.
func Card(heading, content string, cw int) string {
	body := content
	if heading != "" {
		body = theme.Label.Render(heading) + "\n" + content
	}
	return theme.Card.Width(cw).Render(body)
}

// FocusFrame wraps content in a double border that fills the whole
// terminal, centering it both ways.
func FocusFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Highlight).
		Width(width-2).
		Height(height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// Panel is the bordered box used for overlays drawn over a page.
func Panel(title, content string, width int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Background(theme.BgDark).
		Width(width).
		Padding(0, 1).
		Render(theme.Selected.Render(title) + "\n\n" + content)
}

// Status renders an inline status line: errors in red, anything else dim.
func Status(text string, isErr bool) string {
	if text == "" {
		return ""
	}
	if isErr {
		return lipgloss.NewStyle().Foreground(theme.Error).Render(text)
	}
	return theme.Status.Render(text)
}
