package reports

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/screen"
	"github.com/abhisek/studybuddy/internal/store"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// EmptyMessage is shown when no report has been saved yet.
const EmptyMessage = "Your past quiz reports will appear here."

// Source lists saved reports in insertion order. *store.History satisfies
// it.
type Source interface {
	Reports(ctx context.Context) ([]store.Report, error)
}

type reportsLoadedMsg struct {
	Seq     int
	Reports []store.Report
	Err     error
}

// ReportsScreen lists past quiz reports, most recent first, with the
// selected report's summary and breakdown below.
type ReportsScreen struct {
	source   Source
	seq      int
	reports  []store.Report
	selected int
	offset   int
	loaded   bool
	errMsg   string
	detail   components.Pager
}

var _ screen.Screen = (*ReportsScreen)(nil)
var _ screen.Refresher = (*ReportsScreen)(nil)
var _ screen.KeyHintProvider = (*ReportsScreen)(nil)

// New creates a new ReportsScreen.
func New(source Source) *ReportsScreen {
	return &ReportsScreen{source: source, detail: components.NewPager()}
}

func (s *ReportsScreen) Init() tea.Cmd { return nil }

// Refresh reloads the report collection from the store.
func (s *ReportsScreen) Refresh() tea.Cmd {
	s.seq++
	seq, src := s.seq, s.source
	return func() tea.Msg {
		reports, err := src.Reports(context.Background())
		return reportsLoadedMsg{Seq: seq, Reports: reports, Err: err}
	}
}

func (s *ReportsScreen) Title() string {
	return "Past Reports"
}

func (s *ReportsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Select"},
		{Key: "PgUp/PgDn", Description: "Scroll details"},
		{Key: "Esc", Description: "Dashboard"},
	}
}

func (s *ReportsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsLoadedMsg:
		if msg.Seq != s.seq {
			return s, nil
		}
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			s.reports = nil
		} else {
			s.errMsg = ""
			s.reports = store.NewestFirst(msg.Reports)
		}
		s.selected, s.offset = 0, 0
		s.showDetail()
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, router.GoTo(router.Dashboard)
		case "up", "k":
			if s.selected > 0 {
				s.selected--
				s.showDetail()
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.reports)-1 {
				s.selected++
				s.showDetail()
			}
			return s, nil
		}
		var cmd tea.Cmd
		s.detail, cmd = s.detail.Update(msg)
		return s, cmd
	}
	return s, nil
}

// Selected returns the highlighted report.
func (s *ReportsScreen) Selected() (store.Report, bool) {
	if s.selected < 0 || s.selected >= len(s.reports) {
		return store.Report{}, false
	}
	return s.reports[s.selected], true
}

func (s *ReportsScreen) showDetail() {
	r, ok := s.Selected()
	if !ok {
		s.detail.SetText("")
		return
	}
	s.detail.SetText(Detail(r))
}

// Detail renders a report's summary and breakdown.
func Detail(r store.Report) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render("Summary"))
	b.WriteString("\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n")
	b.WriteString(theme.Label.Render("Breakdown"))
	b.WriteString("\n")
	for i, e := range r.Breakdown {
		mark := theme.Correct.Render("✓")
		if !e.IsCorrect {
			mark = theme.Incorrect.Render("✗")
		}
		fmt.Fprintf(&b, "%s %d. %s\n     Your answer: %s\n", mark, i+1, e.Question, e.UserAnswer)
	}
	return b.String()
}

func (s *ReportsScreen) adjustScroll(rows int) {
	if rows <= 0 {
		return
	}
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+rows {
		s.offset = s.selected - rows + 1
	}
}

func (s *ReportsScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading reports...")
	}
	if len(s.reports) == 0 {
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\n  " + EmptyMessage)
	}

	cw := components.ContentWidth(width)
	listRows := height / 3
	if listRows < 3 {
		listRows = 3
	}
	s.adjustScroll(listRows)

	var list strings.Builder
	end := s.offset + listRows
	if end > len(s.reports) {
		end = len(s.reports)
	}
	for i := s.offset; i < end; i++ {
		r := s.reports[i]
		line := fmt.Sprintf("%s  %-30s  %d/%d", r.Date, truncate(r.Topic, 30), r.Score, r.Total)
		if i == s.selected {
			list.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			list.WriteString(theme.Unselected.Render("  " + line))
		}
		list.WriteString("\n")
	}

	s.detail.SetSize(cw-4, height-listRows-6)
	content := components.Card(fmt.Sprintf("%d reports", len(s.reports)), strings.TrimRight(list.String(), "\n"), cw) +
		"\n" + components.Card("", s.detail.View(), cw)
	return center.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
