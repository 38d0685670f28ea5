package dashboard

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/concentration"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/screens/focus"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

const banner = `  ___ _           _       ___         _    _
 / __| |_ _  _ __| |_  _ | _ )_  _ __| |__| |_  _
 \__ \  _| || / _' | || || _ \ || / _' / _' | || |
 |___/\__|\_,_\__,_|\_, ||___/\_,_\__,_\__,_|\_, |
                    |__/                     |__/`

// QuizState reports whether a quiz is in progress.
type QuizState interface {
	Phase() quiz.Phase
}

type field int

const (
	fieldMenu field = iota
	fieldMinutes
)

// DashboardScreen is the landing page: navigation to every tool plus the
// concentration timer.
type DashboardScreen struct {
	quiz    QuizState
	menu    components.Menu
	minutes components.TextInput
	focus   field
	status  string
	isErr   bool
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.Refresher = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)

// New creates the dashboard. quizState may be nil.
func New(quizState QuizState) *DashboardScreen {
	d := &DashboardScreen{
		quiz:    quizState,
		minutes: components.NewTextInput("Concentration minutes", "25", true, 4),
	}
	d.minutes.SetValue("25")
	d.menu = components.NewMenu(d.items())
	return d
}

func (d *DashboardScreen) items() []components.MenuItem {
	resumable := d.quiz != nil && d.quiz.Phase() == quiz.PhaseActive
	goTo := func(p router.Page) func() tea.Cmd {
		return func() tea.Cmd { return router.GoTo(p) }
	}
	return []components.MenuItem{
		{Label: "Take a Quiz", Key: "t", Action: goTo(router.QuizSetup)},
		{Label: "Resume Quiz", Key: "u", Action: goTo(router.Quiz), Disabled: !resumable},
		{Label: "Past Reports", Key: "r", Action: goTo(router.Reports)},
		{Label: "Notes Helper", Key: "n", Action: goTo(router.Notes)},
		{Label: "Exam Prep", Key: "e", Action: goTo(router.ExamPrep)},
		{Label: "Study Materials", Key: "m", Action: goTo(router.MaterialSuggestion)},
		{Label: "Study Coach", Key: "c", Action: router.ToggleChatbot},
		{Label: "Quit", Key: "q", Action: func() tea.Cmd { return tea.Quit }},
	}
}

func (d *DashboardScreen) Init() tea.Cmd { return nil }

func (d *DashboardScreen) Title() string { return "Dashboard" }

func (d *DashboardScreen) KeyHints() []layout.KeyHint {
	if d.focus == fieldMinutes {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Start focus"},
			{Key: "Tab", Description: "Menu"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Tab", Description: "Focus timer"},
		{Key: "Ctrl+T", Description: "Coach"},
	}
}

// Refresh re-enables "Resume Quiz" when a quiz is in progress.
func (d *DashboardScreen) Refresh() tea.Cmd {
	selected := d.menu.Selected
	d.menu = components.NewMenu(d.items())
	if !d.menu.Items[selected].Disabled {
		d.menu.Selected = selected
	}
	return nil
}

func (d *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case focus.StartFailedMsg:
		d.setStatus(msg.Message, true)
		return d, nil

	case focus.StoppedMsg:
		d.setStatus(stopText(msg.Trigger), false)
		return d, nil

	case tea.KeyMsg:
		d.setStatus("", false)
		if msg.String() == "tab" || msg.String() == "shift+tab" {
			return d, d.toggleFocus()
		}
		if d.focus == fieldMinutes {
			if msg.String() == "enter" {
				n, _ := d.minutes.NumericValue()
				return d, focus.Start(n)
			}
			var cmd tea.Cmd
			d.minutes, cmd = d.minutes.Update(msg)
			return d, cmd
		}
		var cmd tea.Cmd
		d.menu, cmd = d.menu.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d *DashboardScreen) toggleFocus() tea.Cmd {
	if d.focus == fieldMenu {
		d.focus = fieldMinutes
		return d.minutes.Focus()
	}
	d.focus = fieldMenu
	d.minutes.Blur()
	return nil
}

func (d *DashboardScreen) setStatus(text string, isErr bool) {
	d.status, d.isErr = text, isErr
}

func stopText(t concentration.Trigger) string {
	switch t {
	case concentration.TriggerTimeout:
		return "Focus session complete. Nice work!"
	case concentration.TriggerExternalExit:
		return "Focus session ended when you left the screen."
	}
	return "Focus session stopped."
}

func (d *DashboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if cw > 60 {
		cw = 60
	}

	var sections []string
	if height >= 24 {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(banner))
	}
	sections = append(sections, theme.Subtitle.Render("Your AI study companion"))

	sections = append(sections, components.Card("", d.menu.View(), cw))

	timer := d.minutes.View()
	if s := components.Status(d.status, d.isErr); s != "" {
		timer += "\n" + s
	}
	sections = append(sections, components.Card("Concentration Mode", timer, cw))

	return layout.Place(strings.Join(sections, "\n\n"), width, height)
}
