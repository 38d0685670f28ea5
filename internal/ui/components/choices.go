package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Choices is a single-select list of options. Chosen holds the picked
// value, which may be changed any number of times until Locked.
type Choices struct {
	Options []string
	Cursor  int
	Chosen  string
	Locked  bool
}

// NewChoices creates a selector over options with an existing pick.
func NewChoices(options []string, chosen string) Choices {
	c := Choices{Options: options, Chosen: chosen}
	for i, o := range options {
		if o == chosen {
			c.Cursor = i
		}
	}
	return c
}

// Update moves the cursor and picks with enter, space or the option's
// letter. It reports whether an option was picked.
func (c Choices) Update(msg tea.Msg) (Choices, bool) {
	if c.Locked {
		return c, false
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, false
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "enter", "space", " ":
		return c.pick(c.Cursor)
	default:
		// Letter shortcuts stop before j/k.
		if len(key) == 1 && key[0] >= 'a' && key[0] < 'j' {
			return c.pick(int(key[0] - 'a'))
		}
	}
	return c, false
}

func (c Choices) pick(i int) (Choices, bool) {
	if i < 0 || i >= len(c.Options) {
		return c, false
	}
	c.Cursor = i
	c.Chosen = c.Options[i]
	return c, true
}

// Index returns the position of Chosen, or -1.
func (c Choices) Index() int {
	for i, o := range c.Options {
		if o == c.Chosen {
			return i
		}
	}
	return -1
}

// View renders the options with letter labels. When focused is false the
// cursor is hidden.
func (c Choices) View(focused bool) string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if focused && i == c.Cursor && !c.Locked {
			prefix = "▸ "
		}
		mark := "( )"
		if opt == c.Chosen {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %c) %s", prefix, mark, 'A'+rune(i%26), opt)

		switch {
		case opt == c.Chosen:
			b.WriteString(theme.Selected.Render(line))
		case focused && i == c.Cursor:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
