package notes

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/export"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/store"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// EmptyMessage is shown when no processed note has been saved yet.
const EmptyMessage = "Your past generated notes will appear here."

// Store is the part of the history the notes page needs.
type Store interface {
	AppendNote(ctx context.Context, action, filename, text string) (store.NoteRecord, error)
	Notes(ctx context.Context) ([]store.NoteRecord, error)
}

type notesLoadedMsg struct {
	Seq   int
	Notes []store.NoteRecord
	Err   error
}

type processedMsg struct {
	Note store.NoteRecord
	Text string
	Err  error
	// SaveErr is set when the text came back but could not be saved.
	SaveErr error
}

type field int

const (
	fieldFile field = iota
	fieldAction
	fieldProcess
	fieldSaved

	numFields
)

var actionLabels = []string{"Summarize", "Expand"}

// NotesScreen sends a notes file to be summarized or expanded, saves the
// result and lists earlier results for export.
type NotesScreen struct {
	gw        gateway.Gateway
	history   Store
	exportDir string
	log       *zap.Logger

	file    components.TextInput
	action  components.Choices
	process components.Button
	output  components.Pager
	focus   field

	seq      int
	saved    []store.NoteRecord
	selected int
	loaded   bool
	status   string
	isErr    bool
}

var _ screen.Screen = (*NotesScreen)(nil)
var _ screen.Refresher = (*NotesScreen)(nil)
var _ screen.KeyHintProvider = (*NotesScreen)(nil)

// New creates the notes helper page. Exports go to exportDir.
func New(gw gateway.Gateway, history Store, exportDir string, log *zap.Logger) *NotesScreen {
	if log == nil {
		log = zap.NewNop()
	}
	s := &NotesScreen{
		gw:        gw,
		history:   history,
		exportDir: exportDir,
		log:       log,
		file:      components.NewTextInput("Notes file (PDF or text)", "~/lecture-notes.pdf", false, 512),
		action:    components.NewChoices(actionLabels, actionLabels[0]),
		process:   components.NewButton("Process Notes", "Processing...", nil),
		output:    components.NewPager(),
	}
	s.setFocus(fieldFile)
	return s
}

func (s *NotesScreen) Init() tea.Cmd { return nil }

func (s *NotesScreen) Title() string { return "Notes Helper" }

func (s *NotesScreen) KeyHints() []layout.KeyHint {
	if s.focus == fieldSaved {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Select"},
			{Key: "Enter", Description: "View"},
			{Key: "x", Description: "Export"},
			{Key: "Esc", Description: "Dashboard"},
		}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Select"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

// Refresh reloads saved notes.
func (s *NotesScreen) Refresh() tea.Cmd {
	s.seq++
	seq, h := s.seq, s.history
	return func() tea.Msg {
		notes, err := h.Notes(context.Background())
		return notesLoadedMsg{Seq: seq, Notes: notes, Err: err}
	}
}

func (s *NotesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case notesLoadedMsg:
		if msg.Seq != s.seq {
			return s, nil
		}
		s.loaded = true
		if msg.Err != nil {
			s.setStatus("Could not load saved notes: "+msg.Err.Error(), true)
			return s, nil
		}
		s.saved = store.NewestFirst(msg.Notes)
		if s.selected >= len(s.saved) {
			s.selected = 0
		}
		return s, nil

	case processedMsg:
		s.process.Busy = false
		if msg.Err != nil {
			s.log.Warn("notes processing failed", zap.Error(msg.Err))
			s.setStatus(gateway.Message(msg.Err), true)
			return s, nil
		}
		s.output.SetText(msg.Text)
		if msg.SaveErr != nil {
			s.setStatus("Processed, but the note could not be saved.", true)
			return s, nil
		}
		s.setStatus("Saved as \""+msg.Note.Title+"\".", false)
		s.selected = 0
		return s, s.Refresh()

	case tea.KeyMsg:
		return s, s.handleKey(msg)

	case tea.PasteMsg:
		if s.focus == fieldFile {
			var cmd tea.Cmd
			s.file, cmd = s.file.Update(msg)
			return s, cmd
		}
	}
	return s, nil
}

func (s *NotesScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
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
	}

	switch s.focus {
	case fieldFile:
		if msg.String() == "enter" {
			return s.setFocus(fieldAction)
		}
		var cmd tea.Cmd
		s.file, cmd = s.file.Update(msg)
		return cmd
	case fieldAction:
		var picked bool
		s.action, picked = s.action.Update(msg)
		if picked {
			return s.setFocus(fieldProcess)
		}
	case fieldProcess:
		if msg.String() == "enter" {
			return s.submit()
		}
	case fieldSaved:
		return s.handleSavedKey(msg.String())
	}
	return nil
}

func (s *NotesScreen) handleSavedKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.saved)-1 {
			s.selected++
		}
	case "enter":
		if n, ok := s.current(); ok {
			s.output.SetText(n.Text)
		}
	case "x":
		s.exportSelected()
	}
	return nil
}

func (s *NotesScreen) current() (store.NoteRecord, bool) {
	if s.selected < 0 || s.selected >= len(s.saved) {
		return store.NoteRecord{}, false
	}
	return s.saved[s.selected], true
}

func (s *NotesScreen) exportSelected() {
	n, ok := s.current()
	if !ok {
		return
	}
	path, err := export.WriteText(s.exportDir, n.Title, n.Text)
	if err != nil {
		s.log.Warn("note export failed", zap.Int64("note_id", n.ID), zap.Error(err))
		s.setStatus("Export failed: "+err.Error(), true)
		return
	}
	s.log.Info("note exported", zap.Int64("note_id", n.ID), zap.String("path", path))
	s.setStatus("Exported to "+path, false)
}

func (s *NotesScreen) setFocus(f field) tea.Cmd {
	s.focus = f
	s.file.Blur()
	s.process.Focused = f == fieldProcess
	if f == fieldFile {
		return s.file.Focus()
	}
	return nil
}

func (s *NotesScreen) selectedAction() gateway.NoteAction {
	if s.action.Index() == 1 {
		return gateway.ActionExpand
	}
	return gateway.ActionSummarize
}

func (s *NotesScreen) submit() tea.Cmd {
	if s.process.Busy {
		return nil
	}
	f, err := gateway.LoadFile(s.file.Value())
	if err != nil {
		s.setStatus("Please select a notes file.", true)
		return nil
	}

	action := s.selectedAction()
	s.process.Busy = true
	s.setStatus("Processing "+f.Name+"...", false)
	gw, h := s.gw, s.history
	return func() tea.Msg {
		ctx := context.Background()
		text, err := gw.ProcessNotes(ctx, f, action)
		if err != nil {
			return processedMsg{Err: err}
		}
		note, err := h.AppendNote(ctx, string(action), f.Name, text)
		return processedMsg{Note: note, Text: text, SaveErr: err}
	}
}

func (s *NotesScreen) setStatus(text string, isErr bool) {
	s.status, s.isErr = text, isErr
}

func (s *NotesScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	actionLabel := theme.Label.Render("Action")
	if s.focus == fieldAction {
		actionLabel = theme.Selected.Render("▸ Action")
	}
	form := s.file.View() + "\n\n" + actionLabel + "\n" + s.action.View(s.focus == fieldAction) + s.process.View()
	if s.status != "" {
		form += "\n" + components.Status(s.status, s.isErr)
	}

	s.output.SetSize(cw-4, height/3)
	output := theme.Hint.Render("Processed notes will appear here.")
	if s.output.Text() != "" {
		output = s.output.View()
	}

	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
		components.Card("Upload notes", form, cw) + "\n" +
			components.Card("Result", output, cw) + "\n" +
			components.Card("Saved notes", s.savedView(), cw))
}

func (s *NotesScreen) savedView() string {
	if !s.loaded {
		return theme.Status.Render("Loading saved notes...")
	}
	if len(s.saved) == 0 {
		return theme.Hint.Render(EmptyMessage)
	}
	var b strings.Builder
	for i, n := range s.saved {
		line := fmt.Sprintf("%s  %s", n.Date, n.Title)
		switch {
		case i == s.selected && s.focus == fieldSaved:
			b.WriteString(theme.Selected.Render("▸ " + line))
		case i == s.selected:
			b.WriteString(theme.Label.Render("  " + line))
		default:
			b.WriteString(theme.Unselected.Render("  " + line))
		}
		if i < len(s.saved)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
