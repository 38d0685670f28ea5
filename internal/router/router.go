package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/screen"
)

// Page identifies one of the full-frame pages. Exactly one is visible.
type Page int

const (
	Dashboard Page = iota
	QuizSetup
	Quiz
	Results
	Reports
	Notes
	ExamPrep
	MaterialSuggestion

	pageCount
)

var pageNames = [pageCount]string{
	Dashboard:          "dashboard",
	QuizSetup:          "quiz-setup",
	Quiz:               "quiz",
	Results:            "results",
	Reports:            "reports",
	Notes:              "notes",
	ExamPrep:           "exam-prep",
	MaterialSuggestion: "material-suggestion",
}

func (p Page) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return pageNames[p]
}

// Valid reports whether p names a page.
func (p Page) Valid() bool {
	return p >= 0 && p < pageCount
}

// Overlay identifies a surface drawn over the current page.
type Overlay int

const (
	Chatbot Overlay = iota
	Concentration

	overlayCount
)

// GoToMsg requests navigation to Page.
type GoToMsg struct {
	Page Page
}

// ToggleChatbotMsg flips the chatbot overlay.
type ToggleChatbotMsg struct{}

// ConcentrationOverlayMsg shows or hides the concentration overlay.
type ConcentrationOverlayMsg struct {
	Visible bool
}

// GoTo returns a command requesting navigation to p.
func GoTo(p Page) tea.Cmd {
	return func() tea.Msg { return GoToMsg{Page: p} }
}

// ToggleChatbot returns a command flipping the chatbot overlay.
func ToggleChatbot() tea.Cmd {
	return func() tea.Msg { return ToggleChatbotMsg{} }
}

// ShowConcentration returns a command showing or hiding the concentration
// overlay.
func ShowConcentration(visible bool) tea.Cmd {
	return func() tea.Msg { return ConcentrationOverlayMsg{Visible: visible} }
}

// Router holds one screen per page plus the overlay surfaces. Page
// visibility is a single value, overlay visibility is independent of it.
type Router struct {
	pages    [pageCount]screen.Screen
	overlays [overlayCount]screen.Screen
	visible  [overlayCount]bool
	active   Page
	onGoTo   func(Page)
}

// New creates a router showing Dashboard. Pages without a screen are
// skipped by GoTo.
func New(pages map[Page]screen.Screen, chatbot, concentration screen.Screen) *Router {
	r := &Router{active: Dashboard}
	for p, s := range pages {
		if p.Valid() {
			r.pages[p] = s
		}
	}
	r.overlays[Chatbot] = chatbot
	r.overlays[Concentration] = concentration
	return r
}

// OnGoTo registers a hook run after every successful GoTo.
func (r *Router) OnGoTo(fn func(Page)) {
	r.onGoTo = fn
}

// Init runs Init on every page and overlay.
func (r *Router) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, s := range r.pages {
		if s != nil {
			cmds = append(cmds, s.Init())
		}
	}
	for _, s := range r.overlays {
		if s != nil {
			cmds = append(cmds, s.Init())
		}
	}
	return tea.Batch(cmds...)
}

// Current returns the visible page.
func (r *Router) Current() Page {
	return r.active
}

// Active returns the visible page's screen.
func (r *Router) Active() screen.Screen {
	return r.pages[r.active]
}

// Page returns the screen registered for p, or nil.
func (r *Router) Page(p Page) screen.Screen {
	if !p.Valid() {
		return nil
	}
	return r.pages[p]
}

// Visible reports whether p is the visible page.
func (r *Router) Visible(p Page) bool {
	return p == r.active
}

// OverlayVisible reports whether overlay o is shown.
func (r *Router) OverlayVisible(o Overlay) bool {
	return o >= 0 && o < overlayCount && r.visible[o]
}

// Overlay returns the screen of overlay o.
func (r *Router) Overlay(o Overlay) screen.Screen {
	if o < 0 || o >= overlayCount {
		return nil
	}
	return r.overlays[o]
}

// GoTo makes p the visible page and runs its refresh. An unknown page, or
// one without a screen, is a no-op. Overlays are not touched.
func (r *Router) GoTo(p Page) tea.Cmd {
	if !p.Valid() || r.pages[p] == nil {
		return nil
	}
	r.active = p

	var cmd tea.Cmd
	if rf, ok := r.pages[p].(screen.Refresher); ok {
		cmd = rf.Refresh()
	}
	if r.onGoTo != nil {
		r.onGoTo(p)
	}
	return cmd
}

// ToggleChatbot flips the chatbot overlay.
func (r *Router) ToggleChatbot() tea.Cmd {
	return r.setOverlay(Chatbot, !r.visible[Chatbot])
}

// SetConcentrationOverlay shows or hides the concentration overlay.
func (r *Router) SetConcentrationOverlay(visible bool) tea.Cmd {
	return r.setOverlay(Concentration, visible)
}

func (r *Router) setOverlay(o Overlay, visible bool) tea.Cmd {
	r.visible[o] = visible
	if !visible {
		return nil
	}
	if rf, ok := r.overlays[o].(screen.Refresher); ok {
		return rf.Refresh()
	}
	return nil
}

// Focused returns the surface that receives input: the concentration
// overlay, then the chatbot, then the visible page.
func (r *Router) Focused() screen.Screen {
	if o, ok := r.focusedOverlay(); ok {
		return r.overlays[o]
	}
	return r.Active()
}

func (r *Router) focusedOverlay() (Overlay, bool) {
	for _, o := range []Overlay{Concentration, Chatbot} {
		if r.visible[o] && r.overlays[o] != nil {
			return o, true
		}
	}
	return 0, false
}

// Update handles navigation messages. Input goes to the focused surface;
// every other message is broadcast to all pages and overlays so async
// results and timer ticks reach their owner whatever is on screen.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case GoToMsg:
		return r.GoTo(msg.Page)
	case ToggleChatbotMsg:
		return r.ToggleChatbot()
	case ConcentrationOverlayMsg:
		return r.SetConcentrationOverlay(msg.Visible)
	}

	if isInput(msg) {
		return r.updateFocused(msg)
	}
	return r.broadcast(msg)
}

func isInput(msg tea.Msg) bool {
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg, tea.PasteMsg:
		return true
	}
	return false
}

func (r *Router) updateFocused(msg tea.Msg) tea.Cmd {
	if o, ok := r.focusedOverlay(); ok {
		updated, cmd := r.overlays[o].Update(msg)
		r.overlays[o] = updated
		return cmd
	}
	active := r.pages[r.active]
	if active == nil {
		return nil
	}
	updated, cmd := active.Update(msg)
	r.pages[r.active] = updated
	return cmd
}

func (r *Router) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for i, s := range r.pages {
		if s == nil {
			continue
		}
		updated, cmd := s.Update(msg)
		r.pages[i] = updated
		cmds = append(cmds, cmd)
	}
	for i, s := range r.overlays {
		if s == nil {
			continue
		}
		updated, cmd := s.Update(msg)
		r.overlays[i] = updated
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// View renders the visible page.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}
