package practice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/clock"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/quiz"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/store"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

var ctrlS = tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}

// collect runs cmd and flattens batches into their messages. Never call it
// on a command that may contain a clock tick.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func hasGoTo(msgs []tea.Msg, p router.Page) bool {
	for _, m := range msgs {
		if g, ok := m.(router.GoToMsg); ok && g.Page == p {
			return true
		}
	}
	return false
}

func findSubmitted(msgs []tea.Msg) (SubmittedMsg, bool) {
	for _, m := range msgs {
		if s, ok := m.(SubmittedMsg); ok {
			return s, true
		}
	}
	return SubmittedMsg{}, false
}

func sampleQuiz() []gateway.QuizItem {
	return []gateway.QuizItem{
		{ID: "1", Question: "Unit of force?", Options: []string{"Newton", "Joule"}, CorrectAnswer: "Newton"},
		{ID: "2", Question: "Unit of energy?", Options: []string{"Newton", "Joule"}, CorrectAnswer: "Joule"},
	}
}

type fixture struct {
	gw      *gateway.Fake
	history *store.History
	ctrl    *quiz.Controller
}

func newFixture() *fixture {
	gw := &gateway.Fake{Quiz: sampleQuiz(), Summary: "Solid work on units.", Videos: []string{"Newton's laws explained"}}
	h := store.NewHistory(store.NewMemoryKV())
	return &fixture{gw: gw, history: h, ctrl: quiz.NewController(gw, h, nil)}
}

// activate runs a quiz of the given duration straight through the
// controller.
func (f *fixture) activate(t *testing.T, minutes int) uint64 {
	t.Helper()
	s := quiz.NewSetup()
	s.SyllabusText = "Units"
	s.DurationMinutes = minutes
	if _, err := f.ctrl.Begin(s); err != nil {
		t.Fatal(err)
	}
	id, err := f.ctrl.Activate(sampleQuiz())
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func typedSetup(f *fixture, topics string) *SetupScreen {
	s := NewSetup(f.gw, f.ctrl, nil)
	s.text.SetValue(topics)
	s.setup.SyllabusText = topics
	s.rebuildTopics()
	s.focusField(fieldGenerate)
	return s
}

func TestSetupGenerateGoesToQuiz(t *testing.T) {
	f := newFixture()
	s := typedSetup(f, "Kinematics\nDynamics")

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected generate command")
	}
	if f.ctrl.Phase() != quiz.PhaseAwaitingGeneration {
		t.Fatalf("phase = %s", f.ctrl.Phase())
	}
	if !s.generate.Busy {
		t.Error("button should be busy while generating")
	}

	_, cmd = s.Update(cmd())
	if !hasGoTo(collect(cmd), router.Quiz) {
		t.Error("expected navigation to the quiz page")
	}
	if f.ctrl.Phase() != quiz.PhaseActive {
		t.Errorf("phase = %s", f.ctrl.Phase())
	}
	if got := f.gw.LastQuiz(); got.Topic != "Kinematics" || got.NumQuestions != quiz.DefaultNumQuestions {
		t.Errorf("quiz request = %+v", got)
	}
}

func TestSetupNoTopicFailsBeforeBackend(t *testing.T) {
	f := newFixture()
	s := typedSetup(f, "")

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Error("expected no command")
	}
	if s.status != "Please select a valid topic!" || !s.isErr {
		t.Errorf("status = %q", s.status)
	}
	if f.gw.Calls(gateway.OpGenerateQuiz) != 0 {
		t.Error("backend called")
	}
	if f.ctrl.Phase() != quiz.PhaseIdle {
		t.Errorf("phase = %s", f.ctrl.Phase())
	}
}

func TestSetupGenerationFailureStaysOnSetup(t *testing.T) {
	f := newFixture()
	f.gw.Err = &gateway.Error{Op: gateway.OpGenerateQuiz, Message: "Could not reach the study backend. Is it running?"}
	s := typedSetup(f, "Optics")

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	_, cmd = s.Update(cmd())

	if cmd != nil {
		t.Error("failure should not navigate")
	}
	if s.status != "Could not reach the study backend. Is it running?" {
		t.Errorf("status = %q", s.status)
	}
	if s.generate.Busy {
		t.Error("button still busy")
	}
	if f.ctrl.Phase() != quiz.PhaseIdle {
		t.Errorf("phase = %s", f.ctrl.Phase())
	}
}

func TestSetupRefreshDropsPendingGeneration(t *testing.T) {
	f := newFixture()
	s := typedSetup(f, "Optics")

	_, cmd := s.Update(specialKey(tea.KeyEnter))
	msg := cmd()

	s.Refresh()
	if s.text.Value() != "" || len(s.topics.Options) != 0 {
		t.Error("refresh did not reset the form")
	}

	_, cmd = s.Update(msg)
	if cmd != nil {
		t.Error("stale generation result navigated")
	}
}

func TestSetupParseSyllabus(t *testing.T) {
	f := newFixture()
	f.gw.Topics = []string{"Optics", "Waves"}
	path := filepath.Join(t.TempDir(), "physics.txt")
	if err := os.WriteFile(path, []byte("Optics\nWaves\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSetup(f.gw, f.ctrl, nil)
	s.file.SetValue(path)
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected parse command")
	}
	s.Update(cmd())

	if len(s.options) != 3 || s.options[0].Value != quiz.FullSyllabus {
		t.Fatalf("options = %+v", s.options)
	}
	if s.setup.SourceFile != "physics.txt" {
		t.Errorf("source = %q", s.setup.SourceFile)
	}
	if s.focus != fieldTopic {
		t.Errorf("focus = %d", s.focus)
	}
}

func TestSetupMissingFile(t *testing.T) {
	f := newFixture()
	s := NewSetup(f.gw, f.ctrl, nil)
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil || !s.isErr {
		t.Errorf("expected validation message, got %q", s.status)
	}
}

func TestQuizReanswerAndSubmitOnce(t *testing.T) {
	f := newFixture()
	f.activate(t, 0)
	q := NewQuiz(f.ctrl)
	q.Refresh()

	q.Update(keyPress('b'))
	q.Update(keyPress('a'))

	s, _ := f.ctrl.Session()
	if s.Questions[0].UserAnswer != "Newton" {
		t.Errorf("answer = %q", s.Questions[0].UserAnswer)
	}
	if q.choices[0].Chosen != "Newton" {
		t.Errorf("marked = %q", q.choices[0].Chosen)
	}

	_, cmd := q.Update(ctrlS)
	msgs := collect(cmd)
	sub, ok := findSubmitted(msgs)
	if !ok || !hasGoTo(msgs, router.Results) {
		t.Fatalf("submit produced %v", msgs)
	}
	if sub.Result.Score != 1 || sub.Result.Breakdown[1].UserAnswer != quiz.NotAnswered {
		t.Errorf("result = %+v", sub.Result)
	}

	if _, cmd := q.Update(ctrlS); cmd != nil {
		t.Error("second submit produced commands")
	}
	q.Update(keyPress('b'))
	if q.choices[0].Chosen != "Newton" {
		t.Error("answer changed after submit")
	}
}

func TestQuizTimerAutoSubmitsOnce(t *testing.T) {
	f := newFixture()
	id := f.activate(t, 1)
	q := NewQuiz(f.ctrl)
	q.Refresh()
	if q.Timer() != "01:00" {
		t.Fatalf("timer = %q", q.Timer())
	}

	for i := 0; i < 59; i++ {
		_, cmd := q.Update(clock.TickMsg{ID: id})
		if cmd == nil {
			t.Fatalf("tick %d not rescheduled", i)
		}
	}
	if q.timer != "00:01" {
		t.Errorf("timer = %q", q.timer)
	}

	_, cmd := q.Update(clock.TickMsg{ID: id})
	if _, ok := findSubmitted(collect(cmd)); !ok {
		t.Fatal("expiry did not submit")
	}
	if q.timer != clock.TimesUp {
		t.Errorf("timer = %q", q.timer)
	}

	if _, cmd := q.Update(ctrlS); cmd != nil {
		t.Error("manual submit after expiry produced commands")
	}
	if _, cmd := q.Update(clock.TickMsg{ID: id}); cmd != nil {
		t.Error("countdown re-armed")
	}
}

func TestQuizIgnoresForeignTicks(t *testing.T) {
	f := newFixture()
	f.activate(t, 2)
	q := NewQuiz(f.ctrl)
	q.Refresh()

	if _, cmd := q.Update(clock.TickMsg{ID: 1 << 40}); cmd != nil {
		t.Error("foreign tick handled")
	}
	if q.timer != "02:00" {
		t.Errorf("timer = %q", q.timer)
	}
}

func submitted(t *testing.T, f *fixture) quiz.Result {
	t.Helper()
	f.activate(t, 0)
	f.ctrl.Select("1", "Newton")
	res, ok := f.ctrl.Submit()
	if !ok {
		t.Fatal("submit failed")
	}
	return res
}

func TestResultsRecordsReport(t *testing.T) {
	f := newFixture()
	r := NewResults(f.gw, f.ctrl, nil)

	_, cmd := r.Update(SubmittedMsg{Result: submitted(t, f)})
	if r.summary != SummaryPending {
		t.Errorf("summary = %q", r.summary)
	}
	for _, msg := range collect(cmd) {
		r.Update(msg)
	}

	if r.summary != "Solid work on units." {
		t.Errorf("summary = %q", r.summary)
	}
	if len(r.videos) != 1 {
		t.Errorf("videos = %v", r.videos)
	}
	reports, _ := f.history.Reports(context.Background())
	if len(reports) != 1 || reports[0].Score != 1 || reports[0].Total != 2 {
		t.Fatalf("reports = %+v", reports)
	}
	if !strings.Contains(r.pager.Text(), gateway.YouTubeSearchURL("Newton's laws explained")) {
		t.Error("video link missing")
	}
}

func TestResultsSummaryFailureStillSaves(t *testing.T) {
	f := newFixture()
	f.gw.Errs = map[string]error{
		gateway.OpReportSummary:    errors.New("backend down"),
		gateway.OpVideoSuggestions: errors.New("backend down"),
	}
	r := NewResults(f.gw, f.ctrl, nil)

	_, cmd := r.Update(SubmittedMsg{Result: submitted(t, f)})
	for _, msg := range collect(cmd) {
		r.Update(msg)
	}

	if r.summary != SummaryFailed {
		t.Errorf("summary = %q", r.summary)
	}
	if !r.videoErr || !strings.Contains(r.pager.Text(), VideosFailed) {
		t.Error("video failure not shown")
	}
	reports, _ := f.history.Reports(context.Background())
	if len(reports) != 1 || reports[0].Summary != quiz.SummaryUnavailable {
		t.Fatalf("reports = %+v", reports)
	}
}

func TestResultsLeaveDiscardsSession(t *testing.T) {
	f := newFixture()
	r := NewResults(f.gw, f.ctrl, nil)
	r.Update(SubmittedMsg{Result: submitted(t, f)})

	_, cmd := r.Update(keyPress('n'))
	if !hasGoTo(collect(cmd), router.QuizSetup) {
		t.Error("expected navigation to quiz setup")
	}
	if f.ctrl.Phase() != quiz.PhaseIdle {
		t.Errorf("phase = %s", f.ctrl.Phase())
	}
}

func TestResultsLeaveBeforeRecordStillSaves(t *testing.T) {
	f := newFixture()
	r := NewResults(f.gw, f.ctrl, nil)

	_, record := r.Update(SubmittedMsg{Result: submitted(t, f)})
	r.Update(keyPress('n'))
	if f.ctrl.Phase() != quiz.PhaseIdle {
		t.Fatalf("phase = %s", f.ctrl.Phase())
	}

	for _, msg := range collect(record) {
		if rec, ok := msg.(RecordedMsg); ok && rec.Err != nil {
			t.Fatalf("record: %v", rec.Err)
		}
		r.Update(msg)
	}
	reports, _ := f.history.Reports(context.Background())
	if len(reports) != 1 {
		t.Fatalf("reports persisted = %d, want 1", len(reports))
	}
}

func TestResultsIgnoresSummaryOfEarlierQuiz(t *testing.T) {
	f := newFixture()
	r := NewResults(f.gw, f.ctrl, nil)

	_, recordFirst := r.Update(SubmittedMsg{Result: submitted(t, f)})
	r.Update(keyPress('n'))

	second := submitted(t, f)
	r.Update(SubmittedMsg{Result: second})

	f.gw.Summary = "Summary of the first quiz."
	for _, msg := range collect(recordFirst) {
		r.Update(msg)
	}

	if r.result.SessionID != second.SessionID {
		t.Fatalf("results page shows session %s", r.result.SessionID)
	}
	if r.summary != SummaryPending {
		t.Errorf("summary = %q, want pending", r.summary)
	}
	reports, _ := f.history.Reports(context.Background())
	if len(reports) != 1 {
		t.Errorf("first quiz reports = %d, want 1", len(reports))
	}
}
