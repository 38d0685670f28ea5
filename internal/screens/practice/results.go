package practice

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Texts shown while the summary and suggestions are pending or failed.
const (
	SummaryPending   = "Generating your personalized summary..."
	SummaryFailed    = "Could not generate AI summary at this time."
	VideosPending    = "Loading video suggestions..."
	VideosFailed     = "Could not load video suggestions."
	ReportSaveFailed = "Your report could not be saved."
)

// ResultsScreen records each submitted session and shows the score, the AI summary, the per-question breakdown
// and video suggestions for the last submitted quiz.
type ResultsScreen struct {
	gw   gateway.Gateway
	ctrl *quiz.Controller
	log  *zap.Logger

	result   quiz.Result
	has      bool
	summary  string
	saveErr  bool
	videos   []string
	videoErr bool
	videosOK bool
	pager    components.Pager
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)

// NewResults creates the results page.
func NewResults(gw gateway.Gateway, ctrl *quiz.Controller, log *zap.Logger) *ResultsScreen {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultsScreen{gw: gw, ctrl: ctrl, log: log, pager: components.NewPager()}
}

func (r *ResultsScreen) Init() tea.Cmd { return nil }

func (r *ResultsScreen) Title() string { return "Results" }

func (r *ResultsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "n", Description: "New quiz"},
		{Key: "r", Description: "Reports"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

func (r *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case SubmittedMsg:
		r.result = msg.Result
		r.has = true
		r.summary = SummaryPending
		r.saveErr = false
		r.videos, r.videoErr, r.videosOK = nil, false, false
		r.refreshBody()
		return r, tea.Batch(recordCmd(r.ctrl, msg.Result), r.loadVideos())

	case RecordedMsg:
		if !r.has || msg.SessionID != r.result.SessionID {
			return r, nil
		}
		switch {
		case msg.Err != nil:
			r.saveErr = true
			r.summary = SummaryFailed
		case msg.Recorded.SummaryErr != nil:
			r.summary = SummaryFailed
		default:
			r.summary = msg.Recorded.Report.Summary
		}
		r.refreshBody()
		return r, nil

	case videosLoadedMsg:
		if !r.has || msg.SessionID != r.result.SessionID {
			return r, nil
		}
		if msg.Err != nil {
			r.log.Warn("video suggestions failed", zap.Error(msg.Err))
			r.videoErr = true
		} else {
			r.videos = msg.Suggestions
			r.videosOK = true
		}
		r.refreshBody()
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "d":
			return r, r.leave(router.Dashboard)
		case "n":
			return r, r.leave(router.QuizSetup)
		case "r":
			return r, r.leave(router.Reports)
		}
		var cmd tea.Cmd
		r.pager, cmd = r.pager.Update(msg)
		return r, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		r.pager, cmd = r.pager.Update(msg)
		return r, cmd
	}
	return r, nil
}

// leave discards the finished session before navigating away.
func (r *ResultsScreen) leave(to router.Page) tea.Cmd {
	if r.ctrl.Phase() == quiz.PhaseSubmitted {
		r.ctrl.Discard()
	}
	return router.GoTo(to)
}

func (r *ResultsScreen) loadVideos() tea.Cmd {
	id, topic, gw := r.result.SessionID, r.result.Topic, r.gw
	return func() tea.Msg {
		s, err := gw.VideoSuggestions(context.Background(), topic)
		return videosLoadedMsg{SessionID: id, Suggestions: s, Err: err}
	}
}

func (r *ResultsScreen) refreshBody() {
	var b strings.Builder

	b.WriteString(theme.Label.Render("Summary"))
	b.WriteString("\n")
	b.WriteString(r.summary)
	if r.saveErr {
		b.WriteString("\n")
		b.WriteString(components.Status(ReportSaveFailed, true))
	}
	b.WriteString("\n\n")

	b.WriteString(theme.Label.Render("Breakdown"))
	b.WriteString("\n")
	for i, e := range r.result.Breakdown {
		mark := theme.Correct.Render("✓")
		if !e.IsCorrect {
			mark = theme.Incorrect.Render("✗")
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, e.Question)
		fmt.Fprintf(&b, "     Your answer: %s\n", e.UserAnswer)
		if !e.IsCorrect {
			fmt.Fprintf(&b, "     Correct answer: %s\n", e.CorrectAnswer)
		}
	}
	b.WriteString("\n")

	b.WriteString(theme.Label.Render("Recommended videos"))
	b.WriteString("\n")
	switch {
	case r.videoErr:
		b.WriteString(components.Status(VideosFailed, true))
	case !r.videosOK:
		b.WriteString(theme.Status.Render(VideosPending))
	case len(r.videos) == 0:
		b.WriteString(theme.Hint.Render("No video suggestions for this topic."))
	default:
		for _, v := range r.videos {
			fmt.Fprintf(&b, "• %s\n  %s\n", v, theme.Hint.Render(gateway.YouTubeSearchURL(v)))
		}
	}

	r.pager.SetText(b.String())
}

func (r *ResultsScreen) View(width, height int) string {
	if !r.has {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No quiz results yet.")
	}

	cw := components.ContentWidth(width)
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.Text).
		Render(fmt.Sprintf("You scored %d out of %d on %s!", r.result.Score, r.result.Total, r.result.Topic))
	bar := components.NewProgressBar("Score", r.result.Score, r.result.Total, cw).View()

	r.pager.SetSize(cw, height-5)
	content := heading + "\n" + bar + "\n\n" + r.pager.View()
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(
		lipgloss.NewStyle().Width(cw).Align(lipgloss.Left).Render(content))
}
