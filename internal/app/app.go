package app

import (
	"fmt"
	"os"
	"sync"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/concentration"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/screens/chatbot"
	"github.com/abhisek/studybuddy/internal/screens/dashboard"
	"github.com/abhisek/studybuddy/internal/screens/examprep"
	"github.com/abhisek/studybuddy/internal/screens/focus"
	"github.com/abhisek/studybuddy/internal/screens/materials"
	"github.com/abhisek/studybuddy/internal/screens/notes"
	"github.com/abhisek/studybuddy/internal/screens/practice"
	"github.com/abhisek/studybuddy/internal/screens/reports"
	"github.com/abhisek/studybuddy/internal/store"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
)

// Options holds the dependencies of the TUI.
type Options struct {
	Gateway   gateway.Gateway
	History   *store.History
	ExportDir string
	Logger    *zap.Logger
}

// terminalSurface is the fullscreen surface of a terminal: the
// concentration overlay owns the whole frame while it is set. The terminal
// losing focus clears it from outside.
type terminalSurface struct {
	mu         sync.Mutex
	fullscreen bool
}

func (s *terminalSurface) RequestFullscreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = true
	return nil
}

func (s *terminalSurface) ExitFullscreen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fullscreen = false
	return nil
}

func (s *terminalSurface) IsFullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreen
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	surface *terminalSurface
	quiz    *practice.QuizScreen
	chat    *chatbot.Overlay
	focus   *focus.Overlay
	log     *zap.Logger
	width   int
	height  int
}

// newAppModel wires every page and overlay to its dependencies.
func newAppModel(opts Options) AppModel {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	gw, history := opts.Gateway, opts.History

	ctrl := quiz.NewController(gw, history, log.Named("quiz"))
	surface := &terminalSurface{}
	quizScreen := practice.NewQuiz(ctrl)
	chat := chatbot.New(gw, history, log.Named("chat"))
	focusOverlay := focus.New(concentration.New(surface, log.Named("concentration")))

	pages := map[router.Page]screen.Screen{
		router.Dashboard:          dashboard.New(ctrl),
		router.QuizSetup:          practice.NewSetup(gw, ctrl, log.Named("setup")),
		router.Quiz:               quizScreen,
		router.Results:            practice.NewResults(gw, ctrl, log.Named("results")),
		router.Reports:            reports.New(history),
		router.Notes:              notes.New(gw, history, opts.ExportDir, log.Named("notes")),
		router.ExamPrep:           examprep.New(gw, opts.ExportDir, log.Named("examprep")),
		router.MaterialSuggestion: materials.New(gw, log.Named("materials")),
	}

	r := router.New(pages, chat, focusOverlay)
	r.OnGoTo(func(p router.Page) {
		log.Info("goto", zap.Stringer("page", p))
	})

	return AppModel{
		router:  r,
		surface: surface,
		quiz:    quizScreen,
		chat:    chat,
		focus:   focusOverlay,
		log:     log,
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.BlurMsg:
		// Leaving the terminal is leaving fullscreen. The surface is already
		// gone, so the session must not try to exit it again.
		if m.surface.IsFullscreen() {
			m.surface.ExitFullscreen()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+t":
			if !m.router.OverlayVisible(router.Concentration) {
				return m, m.router.ToggleChatbot()
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	v.ReportFocus = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the frame: the focus overlay alone while it holds
// fullscreen, otherwise header, page and footer with any overlay on top.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	concentrating := m.router.OverlayVisible(router.Concentration)
	if concentrating && m.surface.IsFullscreen() {
		return components.FocusFrame(m.focus.View(m.width-4, m.height-4), m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}
	header := layout.RenderHeader(title, m.quiz.Timer(), m.width)
	footer := layout.RenderFooter(m.keyHints(), m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	switch {
	case concentrating:
		panel := components.Panel("Concentration", m.focus.View(m.width/2, contentHeight/2), m.width/2)
		content = layout.Overlay(content, panel, m.width, contentHeight)
	case m.router.OverlayVisible(router.Chatbot):
		content = layout.Overlay(content, m.chat.View(m.width, contentHeight), m.width, contentHeight)
	}

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) keyHints() []layout.KeyHint {
	var hints []layout.KeyHint
	if p, ok := m.router.Focused().(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	} else if m.router.OverlayVisible(router.Chatbot) {
		hints = []layout.KeyHint{
			{Key: "Enter", Description: "Send"},
			{Key: "Esc", Description: "Close"},
		}
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
