// Package quiz owns the quiz lifecycle: setup validation, the active
// session with its optional countdown, exactly-once submission, scoring and
// persisting the report.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/clock"
	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/store"
)

// NotAnswered is recorded for questions left blank at submit time.
const NotAnswered = "Not answered"

// SummaryUnavailable is persisted when the AI summary could not be produced.
const SummaryUnavailable = "Summary not available."

// Phase is the controller's lifecycle state.
type Phase int

const (
	PhaseIdle               Phase = iota // No quiz in progress
	PhaseAwaitingGeneration              // Request sent, waiting for questions
	PhaseActive                          // Answering
	PhaseSubmitted                       // Scored; report pending or saved
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingGeneration:
		return "awaiting-generation"
	case PhaseActive:
		return "active"
	case PhaseSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	ErrNotAwaiting     = errors.New("no quiz generation in progress")
	ErrNoQuestions     = errors.New("quiz has no questions")
	ErrNotSubmitted    = errors.New("quiz not submitted")
	ErrAlreadyRecorded = errors.New("report already recorded")
)

// Question is one quiz question and the learner's current answer.
type Question struct {
	ID            string
	Prompt        string
	Options       []string
	CorrectAnswer string
	UserAnswer    string
}

// Answered reports whether an option has been chosen.
func (q Question) Answered() bool { return q.UserAnswer != "" }

// Session is one quiz attempt.
type Session struct {
	ID              string
	Topic           string
	Questions       []Question
	DurationMinutes int
	StartedAt       time.Time
	Submitted       bool
}

// Timed reports whether the session runs against a countdown.
func (s Session) Timed() bool { return s.DurationMinutes > 0 }

// Result is the scored outcome of a submitted session.
type Result struct {
	SessionID string
	Topic     string
	Score     int
	Total     int
	Breakdown []store.BreakdownEntry
}

// SummaryRequest converts the result into a report-summary request.
func (r Result) SummaryRequest() gateway.SummaryRequest {
	items := make([]gateway.SummaryItem, len(r.Breakdown))
	for i, b := range r.Breakdown {
		answer := b.UserAnswer
		if answer == NotAnswered {
			answer = ""
		}
		items[i] = gateway.SummaryItem{Question: b.Question, UserAnswer: answer, IsCorrect: b.IsCorrect}
	}
	return gateway.SummaryRequest{Topic: r.Topic, Results: items}
}

// Score grades questions: one point per exact match with the correct answer.
// Unanswered questions are incorrect and recorded as NotAnswered.
func Score(questions []Question) (int, []store.BreakdownEntry) {
	score := 0
	breakdown := make([]store.BreakdownEntry, len(questions))
	for i, q := range questions {
		correct := q.Answered() && q.UserAnswer == q.CorrectAnswer
		if correct {
			score++
		}
		answer := q.UserAnswer
		if !q.Answered() {
			answer = NotAnswered
		}
		breakdown[i] = store.BreakdownEntry{
			Question:      q.Prompt,
			UserAnswer:    answer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
		}
	}
	return score, breakdown
}

// Summarizer produces the AI performance summary for a result.
type Summarizer interface {
	ReportSummary(ctx context.Context, req gateway.SummaryRequest) (string, error)
}

// ReportSink persists reports. *store.History satisfies it.
type ReportSink interface {
	AppendReport(ctx context.Context, r store.Report) (store.Report, error)
}

// TickResult is the outcome of delivering a timer tick.
type TickResult struct {
	// Accepted is false for ticks of a cancelled or replaced countdown.
	Accepted bool

	// Display is the timer text: MM:SS, or clock.TimesUp once expired.
	Display string

	// Reschedule is true while the countdown still runs.
	Reschedule bool

	// AutoSubmit is true when the countdown just expired on an unsubmitted
	// session. The caller should call Submit.
	AutoSubmit bool
}

// Recorded is the outcome of Record.
type Recorded struct {
	Report store.Report

	// SummaryErr is the summarizer failure, if the placeholder was used.
	SummaryErr error
}

// Controller owns the single active quiz session and its countdown. All
// methods are safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	phase      Phase
	pending    Request
	session    *Session
	// unrecorded holds submitted sessions whose report is not saved yet;
	// recorded holds those saved or being saved. Both outlive the session.
	unrecorded map[string]bool
	recorded   map[string]bool
	countdown  clock.Countdown
	summarizer Summarizer
	reports    ReportSink
	now        clock.Now
	log        *zap.Logger
}

// NewController creates an idle controller.
func NewController(summarizer Summarizer, reports ReportSink, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		summarizer: summarizer,
		reports:    reports,
		unrecorded: make(map[string]bool),
		recorded:   make(map[string]bool),
		now:        time.Now,
		log:        log,
	}
}

// SetClock replaces the wall clock used for session start times.
func (c *Controller) SetClock(now clock.Now) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Session returns a copy of the current session.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	s := *c.session
	s.Questions = make([]Question, len(c.session.Questions))
	copy(s.Questions, c.session.Questions)
	return s, true
}

// Begin validates the setup and moves to AwaitingGeneration. The returned
// request is what to send to the backend. A validation error leaves the
// controller untouched. Beginning discards any previous session.
func (c *Controller) Begin(setup Setup) (Request, error) {
	req, err := setup.Resolve()
	if err != nil {
		return Request{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.countdown.Cancel()
	c.session = nil
	c.pending = req
	c.phase = PhaseAwaitingGeneration

	c.log.Info("quiz generation started",
		zap.String("topic", req.Topic),
		zap.Int("questions", req.Quiz.NumQuestions),
		zap.String("difficulty", string(req.Quiz.Difficulty)),
		zap.Int("duration_minutes", req.DurationMinutes),
	)
	return req, nil
}

// Activate creates the session from generated questions. For a timed quiz
// it arms the countdown and returns its handle; untimed quizzes return 0.
func (c *Controller) Activate(items []gateway.QuizItem) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseAwaitingGeneration {
		return 0, ErrNotAwaiting
	}
	if len(items) == 0 {
		c.phase = PhaseIdle
		return 0, ErrNoQuestions
	}

	questions := make([]Question, len(items))
	for i, it := range items {
		questions[i] = Question{
			ID:            it.ID,
			Prompt:        it.Question,
			Options:       append([]string(nil), it.Options...),
			CorrectAnswer: it.CorrectAnswer,
		}
	}

	c.session = &Session{
		ID:              uuid.NewString(),
		Topic:           c.pending.Topic,
		Questions:       questions,
		DurationMinutes: c.pending.DurationMinutes,
		StartedAt:       c.now(),
	}
	c.phase = PhaseActive

	var id uint64
	if c.session.Timed() {
		id = c.countdown.Start(c.session.DurationMinutes * 60)
	}

	c.log.Info("quiz activated",
		zap.String("session_id", c.session.ID),
		zap.Int("questions", len(questions)),
		zap.Bool("timed", c.session.Timed()),
	)
	return id, nil
}

// Fail returns to Idle after a generation error.
func (c *Controller) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseAwaitingGeneration {
		return
	}
	c.phase = PhaseIdle
	c.log.Warn("quiz generation failed", zap.String("topic", c.pending.Topic), zap.Error(err))
}

// Select records option as the answer to a question, replacing any earlier
// choice. It is ignored after submission or for an unknown question or
// option, and reports whether the answer was applied.
func (c *Controller) Select(questionID, option string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseActive || c.session == nil || c.session.Submitted {
		return false
	}
	for i := range c.session.Questions {
		q := &c.session.Questions[i]
		if q.ID != questionID {
			continue
		}
		for _, o := range q.Options {
			if o == option {
				q.UserAnswer = option
				return true
			}
		}
		return false
	}
	return false
}

// Tick advances the quiz countdown for handle id.
func (c *Controller) Tick(id uint64) TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.countdown.Tick(id)
	if !t.Accepted {
		return TickResult{}
	}
	if t.Expired {
		return TickResult{
			Accepted:   true,
			Display:    clock.TimesUp,
			AutoSubmit: c.phase == PhaseActive && c.session != nil && !c.session.Submitted,
		}
	}
	return TickResult{Accepted: true, Display: clock.Format(t.Remaining), Reschedule: true}
}

// TimerDisplay returns the current timer text, or "" for an untimed or
// absent session.
func (c *Controller) TimerDisplay() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Timed() {
		return ""
	}
	return c.countdown.Display()
}

// Submit scores the session exactly once. The submitted flag is checked and
// set before anything else and the countdown is cancelled before scoring;
// every later call, manual or timer driven, returns false.
func (c *Controller) Submit() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseActive || c.session == nil || c.session.Submitted {
		return Result{}, false
	}
	c.session.Submitted = true
	c.phase = PhaseSubmitted
	c.countdown.Cancel()

	score, breakdown := Score(c.session.Questions)
	res := Result{
		SessionID: c.session.ID,
		Topic:     c.session.Topic,
		Score:     score,
		Total:     len(c.session.Questions),
		Breakdown: breakdown,
	}
	c.unrecorded[res.SessionID] = true

	c.log.Info("quiz submitted",
		zap.String("session_id", res.SessionID),
		zap.Int("score", res.Score),
		zap.Int("total", res.Total),
	)
	return res, true
}

// Record asks for an AI summary and appends the report for res. A failed
// summary never blocks persistence: SummaryUnavailable is stored instead.
// Each submitted session is recorded at most once, even after it has been
// discarded or replaced by a new quiz. A failed save may be retried.
func (c *Controller) Record(ctx context.Context, res Result) (Recorded, error) {
	c.mu.Lock()
	switch {
	case c.recorded[res.SessionID]:
		c.mu.Unlock()
		return Recorded{}, ErrAlreadyRecorded
	case !c.unrecorded[res.SessionID]:
		c.mu.Unlock()
		return Recorded{}, ErrNotSubmitted
	}
	delete(c.unrecorded, res.SessionID)
	c.recorded[res.SessionID] = true
	c.mu.Unlock()

	out := Recorded{}
	summary := SummaryUnavailable
	if c.summarizer != nil {
		s, err := c.summarizer.ReportSummary(ctx, res.SummaryRequest())
		switch {
		case err != nil:
			out.SummaryErr = err
			c.log.Warn("report summary unavailable", zap.String("session_id", res.SessionID), zap.Error(err))
		case s == "":
			out.SummaryErr = errors.New("empty summary")
		default:
			summary = s
		}
	}

	report, err := c.reports.AppendReport(ctx, store.Report{
		Topic:     res.Topic,
		Score:     res.Score,
		Total:     res.Total,
		Summary:   summary,
		Breakdown: res.Breakdown,
	})
	if err != nil {
		c.mu.Lock()
		delete(c.recorded, res.SessionID)
		c.unrecorded[res.SessionID] = true
		c.mu.Unlock()
		c.log.Error("saving report failed", zap.String("session_id", res.SessionID), zap.Error(err))
		return out, fmt.Errorf("save report: %w", err)
	}
	out.Report = report

	c.log.Info("report saved", zap.Int64("report_id", report.ID), zap.String("topic", report.Topic))
	return out, nil
}

// Discard drops the session and cancels its countdown.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.countdown.Cancel()
	c.session = nil
	c.phase = PhaseIdle
}
