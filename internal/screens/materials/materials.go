package materials

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Messages shown on the page.
const (
	NoMaterials  = "No specific materials found for this topic."
	MissingInput = "Please provide a syllabus either by text or file."
)

type suggestionsMsg struct {
	Seq       int
	Materials []gateway.Material
	Err       error
}

type field int

const (
	fieldText field = iota
	fieldFile
	fieldSubmit

	numFields
)

// MaterialsScreen suggests study materials for a syllabus given as text or
// as a file.
type MaterialsScreen struct {
	gw  gateway.Gateway
	log *zap.Logger

	text   textarea.Model
	file   components.TextInput
	submit components.Button
	output components.Pager
	focus  field

	seq       int
	materials []gateway.Material
	done      bool
	status    string
	isErr     bool
}

var _ screen.Screen = (*MaterialsScreen)(nil)
var _ screen.Refresher = (*MaterialsScreen)(nil)
var _ screen.KeyHintProvider = (*MaterialsScreen)(nil)

// New creates the material suggestion page.
func New(gw gateway.Gateway, log *zap.Logger) *MaterialsScreen {
	if log == nil {
		log = zap.NewNop()
	}
	s := &MaterialsScreen{
		gw:     gw,
		log:    log,
		file:   components.NewTextInput("Or a syllabus file", "~/syllabus.pdf", false, 512),
		submit: components.NewButton("Get Suggestions", "Finding materials...", nil),
		output: components.NewPager(),
	}
	s.text = textarea.New()
	s.text.Placeholder = "Paste your syllabus or list the topics"
	s.text.ShowLineNumbers = false
	s.text.SetHeight(5)
	s.setFocus(fieldText)
	return s
}

func (s *MaterialsScreen) Init() tea.Cmd { return nil }

func (s *MaterialsScreen) Title() string { return "Study Materials" }

func (s *MaterialsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "PgUp/PgDn", Description: "Scroll"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

// Refresh clears earlier suggestions. The inputs are kept.
func (s *MaterialsScreen) Refresh() tea.Cmd {
	s.seq++
	s.materials = nil
	s.done = false
	s.submit.Busy = false
	s.output.SetText("")
	s.setStatus("", false)
	return nil
}

func (s *MaterialsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case suggestionsMsg:
		if msg.Seq != s.seq {
			return s, nil
		}
		s.submit.Busy = false
		if msg.Err != nil {
			s.log.Warn("material suggestions failed", zap.Error(msg.Err))
			s.setStatus(gateway.Message(msg.Err), true)
			return s, nil
		}
		s.materials = msg.Materials
		s.done = true
		s.setStatus("", false)
		s.output.SetText(Render(msg.Materials))
		return s, nil

	case tea.KeyMsg:
		return s, s.handleKey(msg)

	case tea.PasteMsg:
		return s, s.updateInput(msg)
	}
	return s, nil
}

func (s *MaterialsScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return router.GoTo(router.Dashboard)
	case "tab":
		return s.setFocus((s.focus + 1) % numFields)
	case "shift+tab":
		return s.setFocus((s.focus + numFields - 1) % numFields)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		s.output, cmd = s.output.Update(msg)
		return cmd
	case "enter":
		switch s.focus {
		case fieldSubmit:
			return s.request()
		case fieldFile:
			return s.setFocus(fieldSubmit)
		}
	}
	return s.updateInput(msg)
}

func (s *MaterialsScreen) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.focus {
	case fieldText:
		s.text, cmd = s.text.Update(msg)
	case fieldFile:
		s.file, cmd = s.file.Update(msg)
	}
	return cmd
}

func (s *MaterialsScreen) setFocus(f field) tea.Cmd {
	s.focus = f
	s.text.Blur()
	s.file.Blur()
	s.submit.Focused = f == fieldSubmit
	switch f {
	case fieldText:
		return s.text.Focus()
	case fieldFile:
		return s.file.Focus()
	}
	return nil
}

// request sends the file when one is given, the typed text otherwise.
func (s *MaterialsScreen) request() tea.Cmd {
	if s.submit.Busy {
		return nil
	}
	req := gateway.MaterialsRequest{Text: strings.TrimSpace(s.text.Value())}
	if path := s.file.Value(); path != "" {
		f, err := gateway.LoadFile(path)
		if err != nil {
			s.setStatus("Could not read "+path+".", true)
			return nil
		}
		req.File = f
	}
	if req.Text == "" && req.File.Empty() {
		s.setStatus(MissingInput, true)
		return nil
	}

	s.seq++
	s.submit.Busy = true
	s.setStatus("Finding study materials...", false)
	seq, gw := s.seq, s.gw
	return func() tea.Msg {
		m, err := gw.MaterialSuggestions(context.Background(), req)
		return suggestionsMsg{Seq: seq, Materials: m, Err: err}
	}
}

func (s *MaterialsScreen) setStatus(text string, isErr bool) {
	s.status, s.isErr = text, isErr
}

// Render lists materials as title, description and link.
func Render(materials []gateway.Material) string {
	if len(materials) == 0 {
		return NoMaterials
	}
	var b strings.Builder
	for i, m := range materials {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", theme.Selected.Render(m.Title))
		if m.Description != "" {
			fmt.Fprintf(&b, "%s\n", m.Description)
		}
		if m.Link != "" {
			fmt.Fprintf(&b, "%s\n", theme.Hint.Render(m.Link))
		}
	}
	return b.String()
}

func (s *MaterialsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	s.text.SetWidth(cw - 4)

	label := theme.Label.Render("Syllabus")
	if s.focus == fieldText {
		label = theme.Selected.Render("▸ Syllabus")
	}
	form := label + "\n" + s.text.View() + "\n\n" + s.file.View() + "\n\n" + s.submit.View()
	if s.status != "" {
		form += "\n" + components.Status(s.status, s.isErr)
	}

	s.output.SetSize(cw-4, height-18)
	out := theme.Hint.Render("Suggestions will appear here.")
	if s.done {
		out = s.output.View()
	}

	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
		components.Card("Your syllabus", form, cw) + "\n" +
			components.Card("Suggested materials", out, cw))
}
