package examprep

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/export"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Validation messages.
const (
	MissingInput = "Please provide both an exam date and a syllabus PDF."
	BadDate      = "Please enter the exam date as YYYY-MM-DD."
)

type planMsg struct {
	Seq  int
	Plan string
	Err  error
}

type field int

const (
	fieldDate field = iota
	fieldFile
	fieldGenerate

	numFields
)

// ExamPrepScreen builds a day-by-day study plan from an exam date and a
// syllabus, and exports it as text.
type ExamPrepScreen struct {
	gw        gateway.Gateway
	exportDir string
	log       *zap.Logger
	now       func() time.Time

	date     components.TextInput
	file     components.TextInput
	generate components.Button
	plan     components.Pager
	focus    field
	heading  string

	seq    int
	status string
	isErr  bool
}

var _ screen.Screen = (*ExamPrepScreen)(nil)
var _ screen.KeyHintProvider = (*ExamPrepScreen)(nil)

// New creates the exam preparation page.
func New(gw gateway.Gateway, exportDir string, log *zap.Logger) *ExamPrepScreen {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ExamPrepScreen{
		gw:        gw,
		exportDir: exportDir,
		log:       log,
		now:       time.Now,
		date:      components.NewTextInput("Exam date", gateway.ExamDateLayout, false, 10),
		file:      components.NewTextInput("Syllabus file (PDF or text)", "~/syllabus.pdf", false, 512),
		generate:  components.NewButton("Generate Study Plan", "Generating plan...", nil),
		plan:      components.NewPager(),
	}
	s.setFocus(fieldDate)
	return s
}

func (s *ExamPrepScreen) Init() tea.Cmd { return nil }

func (s *ExamPrepScreen) Title() string { return "Exam Prep" }

func (s *ExamPrepScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "PgUp/PgDn", Description: "Scroll plan"},
		{Key: "Ctrl+X", Description: "Export plan"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

func (s *ExamPrepScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case planMsg:
		if msg.Seq != s.seq {
			return s, nil
		}
		s.generate.Busy = false
		if msg.Err != nil {
			s.log.Warn("study plan failed", zap.Error(msg.Err))
			s.setStatus(gateway.Message(msg.Err), true)
			return s, nil
		}
		s.plan.SetText(msg.Plan)
		s.setStatus("", false)
		return s, nil

	case tea.KeyMsg:
		return s, s.handleKey(msg)

	case tea.PasteMsg:
		return s, s.updateInput(msg)
	}
	return s, nil
}

func (s *ExamPrepScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return router.GoTo(router.Dashboard)
	case "tab":
		return s.setFocus((s.focus + 1) % numFields)
	case "shift+tab":
		return s.setFocus((s.focus + numFields - 1) % numFields)
	case "ctrl+x":
		s.exportPlan()
		return nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		s.plan, cmd = s.plan.Update(msg)
		return cmd
	case "enter":
		if s.focus == fieldGenerate {
			return s.submit()
		}
		return s.setFocus(s.focus + 1)
	}
	return s.updateInput(msg)
}

func (s *ExamPrepScreen) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.focus {
	case fieldDate:
		s.date, cmd = s.date.Update(msg)
	case fieldFile:
		s.file, cmd = s.file.Update(msg)
	}
	return cmd
}

func (s *ExamPrepScreen) setFocus(f field) tea.Cmd {
	s.focus = f
	s.date.Blur()
	s.file.Blur()
	s.generate.Focused = f == fieldGenerate
	switch f {
	case fieldDate:
		return s.date.Focus()
	case fieldFile:
		return s.file.Focus()
	}
	return nil
}

func (s *ExamPrepScreen) submit() tea.Cmd {
	if s.generate.Busy {
		return nil
	}
	date := s.date.Value()
	f, err := gateway.LoadFile(s.file.Value())
	if date == "" || err != nil {
		s.setStatus(MissingInput, true)
		return nil
	}
	if _, err := time.Parse(gateway.ExamDateLayout, date); err != nil {
		s.setStatus(BadDate, true)
		return nil
	}

	s.seq++
	s.generate.Busy = true
	s.heading = "Study plan for the exam on " + date
	s.setStatus("Building your study plan...", false)
	seq, gw := s.seq, s.gw
	return func() tea.Msg {
		plan, err := gw.StudyPlan(context.Background(), date, f)
		return planMsg{Seq: seq, Plan: plan, Err: err}
	}
}

func (s *ExamPrepScreen) exportPlan() {
	if s.plan.Text() == "" {
		s.setStatus("Generate a plan before exporting.", true)
		return
	}
	path, err := export.WriteText(s.exportDir, s.heading, s.plan.Text())
	if err != nil {
		s.log.Warn("plan export failed", zap.Error(err))
		s.setStatus("Export failed: "+err.Error(), true)
		return
	}
	s.log.Info("plan exported", zap.String("path", path))
	s.setStatus("Exported to "+path, false)
}

func (s *ExamPrepScreen) setStatus(text string, isErr bool) {
	s.status, s.isErr = text, isErr
}

func (s *ExamPrepScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	form := s.date.View() + "\n\n" + s.file.View() + "\n\n" + s.generate.View()
	if s.status != "" {
		form += "\n" + components.Status(s.status, s.isErr)
	}

	s.plan.SetSize(cw-4, height-14)
	planBody := theme.Hint.Render("Your study plan will appear here.")
	if s.plan.Text() != "" {
		planBody = s.plan.View()
	}

	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
		components.Card("Exam details", form, cw) + "\n" +
			components.Card(s.heading, planBody, cw))
}
