// Package focus is the concentration overlay: a fullscreen countdown that
// blocks the rest of the app until it stops.
package focus

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/clock"
	"github.com/abhisek/studybuddy/internal/concentration"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// StartMsg asks the overlay to start a session of Minutes.
type StartMsg struct {
	Minutes int
}

// StartFailedMsg reports a rejected start. Message is fit for display.
type StartFailedMsg struct {
	Message string
}

// StoppedMsg is emitted once per session, whatever ended it.
type StoppedMsg struct {
	Trigger concentration.Trigger
}

// Start returns a command requesting a session of minutes.
func Start(minutes int) tea.Cmd {
	return func() tea.Msg { return StartMsg{Minutes: minutes} }
}

// Overlay drives a concentration.Session from bubbletea messages.
type Overlay struct {
	session *concentration.Session
}

var _ screen.Screen = (*Overlay)(nil)

// New creates the overlay for session.
func New(session *concentration.Session) *Overlay {
	return &Overlay{session: session}
}

func (o *Overlay) Init() tea.Cmd { return nil }

func (o *Overlay) Title() string { return "Concentration" }

// Running reports whether a session is counting down.
func (o *Overlay) Running() bool {
	return o.session.Running()
}

func (o *Overlay) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case StartMsg:
		id, err := o.session.Start(msg.Minutes)
		if err != nil {
			return o, func() tea.Msg {
				return StartFailedMsg{Message: concentration.InvalidDurationMessage}
			}
		}
		return o, tea.Batch(router.ShowConcentration(true), clock.Schedule(id))

	case clock.TickMsg:
		r := o.session.Tick(msg.ID)
		switch {
		case !r.Accepted:
			return o, nil
		case r.Stopped:
			return o, stopped(concentration.TriggerTimeout)
		case r.Reschedule:
			return o, clock.Schedule(msg.ID)
		}
		return o, nil

	case tea.BlurMsg:
		if o.session.FullscreenExited() {
			return o, stopped(concentration.TriggerExternalExit)
		}
		return o, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			if o.session.Stop(concentration.TriggerManual) {
				return o, stopped(concentration.TriggerManual)
			}
			// Nothing running but the overlay is up: just take it down.
			return o, tea.Batch(router.ShowConcentration(false), router.GoTo(router.Dashboard))
		}
	}
	return o, nil
}

func stopped(trigger concentration.Trigger) tea.Cmd {
	return tea.Batch(
		router.ShowConcentration(false),
		router.GoTo(router.Dashboard),
		func() tea.Msg { return StoppedMsg{Trigger: trigger} },
	)
}

func (o *Overlay) View(width, height int) string {
	timer := lipgloss.NewStyle().
		Foreground(theme.Highlight).
		Bold(true).
		Padding(1, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Highlight).
		Render(o.session.Display())

	return lipgloss.JoinVertical(lipgloss.Center,
		theme.Title.Render("Concentration Mode"),
		"",
		timer,
		"",
		theme.Body.Render("Stay on this screen until the timer ends."),
		theme.Hint.Render("Switching away ends the session · Esc to stop"),
	)
}
