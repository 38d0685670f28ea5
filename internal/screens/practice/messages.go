// Package practice holds the three screens of the quiz flow: setup, the
// quiz itself and the results page.
package practice

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/quiz"
)

// syllabusParsedMsg carries the topics parsed from a syllabus file.
type syllabusParsedMsg struct {
	Seq    int
	File   string
	Topics []string
	Err    error
}

// quizGeneratedMsg carries the backend's answer to a generate request.
type quizGeneratedMsg struct {
	Seq   int
	Items []gateway.QuizItem
	Err   error
}

// SubmittedMsg is sent once per session, right after scoring. The results
// page records the report when it sees it.
type SubmittedMsg struct {
	Result quiz.Result
}

// RecordedMsg reports the outcome of saving the report for a session.
type RecordedMsg struct {
	SessionID string
	Recorded  quiz.Recorded
	Err       error
}

// videosLoadedMsg carries video suggestions for the results page.
type videosLoadedMsg struct {
	SessionID   string
	Suggestions []string
	Err         error
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func recordCmd(ctrl *quiz.Controller, res quiz.Result) tea.Cmd {
	return func() tea.Msg {
		rec, err := ctrl.Record(context.Background(), res)
		return RecordedMsg{SessionID: res.SessionID, Recorded: rec, Err: err}
	}
}
