package practice

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/clock"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// QuizScreen shows the active session one question at a time.
type QuizScreen struct {
	ctrl *quiz.Controller

	session quiz.Session
	loaded  bool
	choices []components.Choices
	current int
	timer   string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.Refresher = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// NewQuiz creates the quiz page.
func NewQuiz(ctrl *quiz.Controller) *QuizScreen {
	return &QuizScreen{ctrl: ctrl}
}

// Refresh loads the controller's session. Answers already given are kept.
func (q *QuizScreen) Refresh() tea.Cmd {
	s, ok := q.ctrl.Session()
	if !ok {
		q.loaded = false
		q.choices = nil
		return nil
	}
	if !q.loaded || s.ID != q.session.ID {
		q.current = 0
	}
	q.session = s
	q.loaded = true
	q.choices = make([]components.Choices, len(s.Questions))
	for i, question := range s.Questions {
		q.choices[i] = components.NewChoices(question.Options, question.UserAnswer)
		q.choices[i].Locked = s.Submitted
	}
	q.timer = q.ctrl.TimerDisplay()
	return nil
}

func (q *QuizScreen) Init() tea.Cmd { return nil }

func (q *QuizScreen) Title() string {
	if q.loaded {
		return "Quiz: " + q.session.Topic
	}
	return "Quiz"
}

// Timer returns the countdown text for the header, "" when untimed.
func (q *QuizScreen) Timer() string {
	if !q.loaded || q.session.Submitted {
		return ""
	}
	return q.timer
}

func (q *QuizScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "A-D/Enter", Description: "Answer"},
		{Key: "←→", Description: "Question"},
		{Key: "Ctrl+S", Description: "Submit"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

func (q *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case clock.TickMsg:
		return q, q.handleTick(msg)
	case tea.KeyMsg:
		return q, q.handleKey(msg)
	}
	return q, nil
}

// handleTick drives the quiz countdown. Ticks for other countdowns are
// rejected by the controller and dropped here.
func (q *QuizScreen) handleTick(msg clock.TickMsg) tea.Cmd {
	r := q.ctrl.Tick(msg.ID)
	if !r.Accepted {
		return nil
	}
	q.timer = r.Display
	if r.AutoSubmit {
		return q.submit()
	}
	if r.Reschedule {
		return clock.Schedule(msg.ID)
	}
	return nil
}

func (q *QuizScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return router.GoTo(router.Dashboard)
	case "ctrl+s":
		return q.submit()
	case "right", "tab":
		if q.current < len(q.choices)-1 {
			q.current++
		}
		return nil
	case "left", "shift+tab":
		if q.current > 0 {
			q.current--
		}
		return nil
	}

	if !q.loaded || q.current >= len(q.choices) {
		return nil
	}
	var picked bool
	q.choices[q.current], picked = q.choices[q.current].Update(msg)
	if picked {
		question := q.session.Questions[q.current]
		if q.ctrl.Select(question.ID, q.choices[q.current].Chosen) {
			q.session.Questions[q.current].UserAnswer = q.choices[q.current].Chosen
		}
	}
	return nil
}

// submit is the single path for both the submit key and timer expiry. Only
// the call that wins the controller's guard produces any commands.
func (q *QuizScreen) submit() tea.Cmd {
	res, ok := q.ctrl.Submit()
	if !ok {
		return nil
	}
	q.session.Submitted = true
	for i := range q.choices {
		q.choices[i].Locked = true
	}
	return tea.Batch(
		emit(SubmittedMsg{Result: res}),
		router.GoTo(router.Results),
	)
}

func (q *QuizScreen) answered() int {
	n := 0
	for _, question := range q.session.Questions {
		if question.Answered() {
			n++
		}
	}
	return n
}

func (q *QuizScreen) View(width, height int) string {
	if !q.loaded || len(q.session.Questions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No quiz in progress. Start one from Quiz Setup.")
	}

	cw := components.ContentWidth(width)
	question := q.session.Questions[q.current]

	var b strings.Builder
	b.WriteString(components.NewProgressBar("Answered", q.answered(), len(q.session.Questions), cw).View())
	b.WriteString("\n\n")

	body := lipgloss.NewStyle().Width(cw - 4).Foreground(theme.Text).Bold(true).Render(question.Prompt) +
		"\n\n" + q.choices[q.current].View(true)
	b.WriteString(components.Card(fmt.Sprintf("Question %d of %d", q.current+1, len(q.session.Questions)), body, cw))
	b.WriteString("\n")

	if q.timer != "" {
		b.WriteString(theme.Timer.Render("Time left: " + q.timer))
		b.WriteString("   ")
	}
	b.WriteString(theme.Hint.Render("Press Ctrl+S to submit your answers."))

	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(b.String())
}
