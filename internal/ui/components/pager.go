package components

import (
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// Pager is a scrollable text area for generated output. Text is wrapped to
// the pager width on every resize.
type Pager struct {
	vp   viewport.Model
	text string
	w, h int
}

// NewPager creates an empty pager.
func NewPager() Pager {
	return Pager{vp: viewport.New()}
}

// SetText replaces the content and scrolls to the top.
func (p *Pager) SetText(text string) {
	p.text = text
	p.render()
	p.vp.GotoTop()
}

// Text returns the unwrapped content.
func (p Pager) Text() string {
	return p.text
}

// SetSize resizes the pager, rewrapping the content when the width changes.
func (p *Pager) SetSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == p.w && height == p.h {
		return
	}
	p.w, p.h = width, height
	p.vp.SetWidth(width)
	p.vp.SetHeight(height)
	p.render()
}

func (p *Pager) render() {
	w := p.w
	if w < 1 {
		w = 80
	}
	p.vp.SetContent(lipgloss.NewStyle().Width(w).Render(p.text))
}

// Update scrolls on arrow, page and mouse wheel input.
func (p Pager) Update(msg tea.Msg) (Pager, tea.Cmd) {
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

// View renders the visible part of the content.
func (p Pager) View() string {
	return p.vp.View()
}
