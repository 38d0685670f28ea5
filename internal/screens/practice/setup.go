package practice

import (
	"context"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/clock"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

const generateFailed = "The quiz could not be generated. Please try again."

type setupField int

const (
	fieldFile setupField = iota
	fieldText
	fieldTopic
	fieldQuestions
	fieldDifficulty
	fieldDuration
	fieldGenerate

	numFields
)

// SetupScreen collects the syllabus and quiz options and starts generation.
type SetupScreen struct {
	gw   gateway.Gateway
	ctrl *quiz.Controller
	log  *zap.Logger

	setup      quiz.Setup
	options    []quiz.Option
	file       components.TextInput
	text       textarea.Model
	topics     components.Choices
	count      components.TextInput
	difficulty components.Choices
	duration   components.TextInput
	generate   components.Button

	focus   setupField
	seq     int
	parsing bool
	status  string
	isErr   bool
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.Refresher = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// NewSetup creates the quiz setup page.
func NewSetup(gw gateway.Gateway, ctrl *quiz.Controller, log *zap.Logger) *SetupScreen {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SetupScreen{gw: gw, ctrl: ctrl, log: log}
	s.reset()
	return s
}

func (s *SetupScreen) reset() {
	s.setup = quiz.NewSetup()
	s.seq++
	s.parsing = false
	s.status, s.isErr = "", false

	s.file = components.NewTextInput("Syllabus file (PDF or text)", "~/syllabus.pdf", false, 512)
	s.text = textarea.New()
	s.text.Placeholder = "Or type topics, one per line"
	s.text.ShowLineNumbers = false
	s.text.SetHeight(4)
	s.count = components.NewTextInput("Number of questions", strconv.Itoa(quiz.DefaultNumQuestions), true, 3)
	s.count.SetValue(strconv.Itoa(quiz.DefaultNumQuestions))
	s.duration = components.NewTextInput("Timer in minutes (0 for untimed)", "0", true, 3)
	s.duration.SetValue("0")

	diffs := make([]string, len(gateway.Difficulties))
	for i, d := range gateway.Difficulties {
		diffs[i] = string(d)
	}
	s.difficulty = components.NewChoices(diffs, string(s.setup.Difficulty))
	s.generate = components.NewButton("Generate Quiz", "Generating quiz...", nil)
	s.rebuildTopics()
	s.focusField(fieldFile)
}

// Refresh resets every field to its initial state. A running quiz is left
// alone.
func (s *SetupScreen) Refresh() tea.Cmd {
	s.reset()
	return s.file.Focus()
}

func (s *SetupScreen) Init() tea.Cmd { return nil }

func (s *SetupScreen) Title() string { return "Quiz Setup" }

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case syllabusParsedMsg:
		return s, s.handleParsed(msg)
	case quizGeneratedMsg:
		return s, s.handleGenerated(msg)
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	case tea.PasteMsg:
		return s, s.updateField(msg)
	}
	return s, nil
}

func (s *SetupScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return router.GoTo(router.Dashboard)
	case "tab":
		return s.focusField((s.focus + 1) % numFields)
	case "shift+tab":
		return s.focusField((s.focus + numFields - 1) % numFields)
	case "enter":
		switch s.focus {
		case fieldFile:
			return s.parseSyllabus()
		case fieldQuestions, fieldDuration:
			return s.focusField(s.focus + 1)
		case fieldGenerate:
			return s.startGeneration()
		}
	}
	return s.updateField(msg)
}

func (s *SetupScreen) updateField(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.focus {
	case fieldFile:
		s.file, cmd = s.file.Update(msg)
	case fieldText:
		before := s.text.Value()
		s.text, cmd = s.text.Update(msg)
		if s.text.Value() != before {
			s.setup.SyllabusText = s.text.Value()
			s.rebuildTopics()
		}
	case fieldTopic:
		s.topics, _ = s.topics.Update(msg)
	case fieldQuestions:
		s.count, cmd = s.count.Update(msg)
	case fieldDifficulty:
		s.difficulty, _ = s.difficulty.Update(msg)
	case fieldDuration:
		s.duration, cmd = s.duration.Update(msg)
	}
	return cmd
}

func (s *SetupScreen) focusField(f setupField) tea.Cmd {
	s.focus = f
	s.file.Blur()
	s.text.Blur()
	s.count.Blur()
	s.duration.Blur()
	s.generate.Focused = f == fieldGenerate

	switch f {
	case fieldFile:
		return s.file.Focus()
	case fieldText:
		return s.text.Focus()
	case fieldQuestions:
		return s.count.Focus()
	case fieldDuration:
		return s.duration.Focus()
	}
	return nil
}

// rebuildTopics recomputes the topic options, keeping the current pick when
// it is still offered.
func (s *SetupScreen) rebuildTopics() {
	prev := s.selectedValue()
	s.options = s.setup.Options()
	labels := make([]string, len(s.options))
	chosen := ""
	for i, o := range s.options {
		labels[i] = o.Label
		if o.Value == prev {
			chosen = o.Label
		}
	}
	if chosen == "" && len(labels) > 0 {
		chosen = labels[0]
	}
	s.topics = components.NewChoices(labels, chosen)
}

func (s *SetupScreen) selectedValue() string {
	i := s.topics.Index()
	if i < 0 || i >= len(s.options) {
		return ""
	}
	return s.options[i].Value
}

func (s *SetupScreen) parseSyllabus() tea.Cmd {
	if s.parsing {
		return nil
	}
	f, err := gateway.LoadFile(s.file.Value())
	if err != nil {
		s.setStatus("Please choose a syllabus file to upload.", true)
		return nil
	}

	s.parsing = true
	s.setStatus("Parsing syllabus...", false)
	seq, gw := s.seq, s.gw
	return func() tea.Msg {
		topics, err := gw.ParseSyllabus(context.Background(), f)
		return syllabusParsedMsg{Seq: seq, File: f.Name, Topics: topics, Err: err}
	}
}

func (s *SetupScreen) handleParsed(msg syllabusParsedMsg) tea.Cmd {
	if msg.Seq != s.seq {
		return nil
	}
	s.parsing = false
	if msg.Err != nil {
		s.log.Warn("syllabus parse failed", zap.Error(msg.Err))
		s.setStatus(gateway.Message(msg.Err), true)
		return nil
	}
	if len(msg.Topics) == 0 {
		s.setStatus("No topics were found in that syllabus.", true)
		return nil
	}
	s.setup.ParsedTopics = msg.Topics
	s.setup.SourceFile = msg.File
	s.rebuildTopics()
	s.setStatus("Found "+strconv.Itoa(len(msg.Topics))+" topics in "+msg.File+".", false)
	return s.focusField(fieldTopic)
}

// readSetup copies the form into the quiz setup. Unparseable numbers become
// -1 so that validation rejects them.
func (s *SetupScreen) readSetup() quiz.Setup {
	setup := s.setup
	setup.SyllabusText = s.text.Value()
	setup.Selected = s.selectedValue()
	setup.Difficulty = gateway.Difficulty(s.difficulty.Chosen)

	setup.NumQuestions = -1
	if n, err := strconv.Atoi(s.count.Value()); err == nil {
		setup.NumQuestions = n
	}
	setup.DurationMinutes = -1
	if n, err := s.duration.NumericValue(); err == nil {
		setup.DurationMinutes = n
	}
	return setup
}

func (s *SetupScreen) startGeneration() tea.Cmd {
	if s.generate.Busy {
		return nil
	}
	req, err := s.ctrl.Begin(s.readSetup())
	if err != nil {
		s.setStatus(quiz.Message(err), true)
		return nil
	}

	s.seq++
	s.generate.Busy = true
	s.setStatus("Generating your quiz on "+req.Topic+"...", false)
	seq, gw := s.seq, s.gw
	return func() tea.Msg {
		items, err := gw.GenerateQuiz(context.Background(), req.Quiz)
		return quizGeneratedMsg{Seq: seq, Items: items, Err: err}
	}
}

func (s *SetupScreen) handleGenerated(msg quizGeneratedMsg) tea.Cmd {
	if msg.Seq != s.seq {
		return nil
	}
	s.generate.Busy = false

	if msg.Err != nil {
		s.ctrl.Fail(msg.Err)
		s.setStatus(gateway.Message(msg.Err), true)
		return nil
	}
	id, err := s.ctrl.Activate(msg.Items)
	if err != nil {
		s.setStatus(generateFailed, true)
		return nil
	}

	s.setStatus("", false)
	cmds := []tea.Cmd{router.GoTo(router.Quiz)}
	if id != 0 {
		cmds = append(cmds, clock.Schedule(id))
	}
	return tea.Batch(cmds...)
}

func (s *SetupScreen) setStatus(text string, isErr bool) {
	s.status, s.isErr = text, isErr
}

func (s *SetupScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	s.text.SetWidth(cw - 4)

	topicBody := theme.Hint.Render("Upload a syllabus or type topics to choose from.")
	if len(s.topics.Options) > 0 {
		topicBody = s.topics.View(s.focus == fieldTopic)
	}
	topicLabel := theme.Label.Render("Topic")
	if s.focus == fieldTopic {
		topicLabel = theme.Selected.Render("▸ Topic")
	}
	textLabel := theme.Label.Render("Topics")
	if s.focus == fieldText {
		textLabel = theme.Selected.Render("▸ Topics")
	}
	diffLabel := theme.Label.Render("Difficulty")
	if s.focus == fieldDifficulty {
		diffLabel = theme.Selected.Render("▸ Difficulty")
	}

	sections := []string{
		components.Card("1. Syllabus", s.file.View()+"\n\n"+textLabel+"\n"+s.text.View(), cw),
		components.Card("2. Quiz options",
			topicLabel+"\n"+topicBody+"\n"+
				s.count.View()+"\n\n"+
				diffLabel+"\n"+s.difficulty.View(s.focus == fieldDifficulty)+"\n"+
				s.duration.View(), cw),
		lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(s.generate.View()),
	}
	if s.status != "" {
		sections = append(sections, components.Status(s.status, s.isErr))
	}

	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(strings.Join(sections, "\n"))
}
