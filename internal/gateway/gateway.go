// Package gateway translates study intents (generate a quiz, summarize notes,
// chat with the coach, ...) into calls to the AI backend. Two
// implementations exist: HTTPClient talks to a running backend over REST and
// LLMGateway answers in-process with an llm.Provider.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Gateway is the set of backend operations the client depends on.
type Gateway interface {
	ParseSyllabus(ctx context.Context, syllabus File) ([]string, error)
	GenerateQuiz(ctx context.Context, req QuizRequest) ([]QuizItem, error)
	ReportSummary(ctx context.Context, req SummaryRequest) (string, error)
	VideoSuggestions(ctx context.Context, topic string) ([]string, error)
	ProcessNotes(ctx context.Context, notes File, action NoteAction) (string, error)
	StudyPlan(ctx context.Context, examDate string, syllabus File) (string, error)
	MaterialSuggestions(ctx context.Context, req MaterialsRequest) ([]Material, error)
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// Operation names, used in errors and logs.
const (
	OpParseSyllabus       = "parse-syllabus"
	OpGenerateQuiz        = "generate-quiz"
	OpReportSummary       = "generate-report-summary"
	OpVideoSuggestions    = "get-video-suggestions"
	OpProcessNotes        = "process-notes"
	OpStudyPlan           = "generate-study-plan"
	OpMaterialSuggestions = "get-material-suggestions"
	OpChat                = "chat"
)

// ExamDateLayout is the accepted exam date format.
const ExamDateLayout = "2006-01-02"

// File is an uploaded document.
type File struct {
	Name string
	Data []byte
}

// Empty reports whether no file was provided.
func (f File) Empty() bool {
	return f.Name == "" && len(f.Data) == 0
}

// LoadFile reads a file from disk. A leading "~/" is expanded.
func LoadFile(path string) (File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return File{}, ErrMissingFile
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Difficulty of a generated quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the accepted difficulties in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// QuizRequest asks for a quiz on one topic, or on every topic of a parsed
// syllabus when FullSyllabusTopics is set.
type QuizRequest struct {
	Topic              string     `json:"topic,omitempty"`
	NumQuestions       int        `json:"num_questions"`
	Difficulty         Difficulty `json:"difficulty"`
	FullSyllabusTopics []string   `json:"full_syllabus_topics,omitempty"`
}

// QuizItem is one generated multiple-choice question.
type QuizItem struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// quizItemWire accepts numeric or string IDs.
type quizItemWire struct {
	ID            json.RawMessage `json:"id"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer string          `json:"correctAnswer"`
}

// SummaryItem is one graded answer sent for a report summary.
type SummaryItem struct {
	Question   string `json:"question"`
	UserAnswer string `json:"userAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
}

// SummaryRequest asks for a short performance summary of a finished quiz.
type SummaryRequest struct {
	Topic   string        `json:"topic"`
	Results []SummaryItem `json:"results"`
}

// NoteAction selects how notes are processed.
type NoteAction string

const (
	ActionSummarize NoteAction = "summarize"
	ActionExpand    NoteAction = "expand"
)

// Valid reports whether a is a known action.
func (a NoteAction) Valid() bool {
	return a == ActionSummarize || a == ActionExpand
}

// MaterialsRequest carries a syllabus either as text or as a file. The file
// wins when both are set.
type MaterialsRequest struct {
	Text string
	File File
}

// Material is a suggested study resource.
type Material struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Chat roles as sent by the client.
const (
	ChatRoleUser = "user"
	ChatRoleBot  = "bot"
)

// ChatTurn is one message of the running conversation.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Performance is one past quiz result, Score formatted as "3/5".
type Performance struct {
	Topic string `json:"topic"`
	Score string `json:"score"`
}

// ChatRequest is a message to the study coach with its context.
type ChatRequest struct {
	Message     string        `json:"message"`
	History     []ChatTurn    `json:"history"`
	Performance []Performance `json:"performance"`
}

const (
	chatHistoryWindow     = 6
	chatPerformanceWindow = 3
)

// YouTubeSearchURL returns the YouTube search page for query.
func YouTubeSearchURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}

// normalizeQuiz converts wire items to QuizItems. IDs become strings; a
// missing or repeated ID is replaced by its position ("q1", "q2", ...).
// Items without a question, with fewer than two options, or whose correct
// answer is not one of the options are dropped.
func normalizeQuiz(raw []quizItemWire) []QuizItem {
	items := make([]QuizItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, w := range raw {
		if strings.TrimSpace(w.Question) == "" || len(w.Options) < 2 || !contains(w.Options, w.CorrectAnswer) {
			continue
		}
		id := rawID(w.ID)
		if id == "" || seen[id] {
			id = "q" + strconv.Itoa(i+1)
		}
		seen[id] = true
		items = append(items, QuizItem{
			ID:            id,
			Question:      strings.TrimSpace(w.Question),
			Options:       w.Options,
			CorrectAnswer: w.CorrectAnswer,
		})
	}
	return items
}

func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// lastN returns the trailing n elements of s.
func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Validation errors, detected before any backend call.
var (
	ErrMissingFile   = errors.New("no file provided")
	ErrMissingInput  = errors.New("required input missing")
	ErrInvalidAction = errors.New("invalid action specified")
	ErrInvalidDate   = errors.New("invalid exam date")
)

// Error is a failed gateway operation. Message is always fit for display.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports whether the error was raised before contacting the
// backend.
func (e *Error) Validation() bool {
	return errors.Is(e.Err, ErrMissingFile) ||
		errors.Is(e.Err, ErrMissingInput) ||
		errors.Is(e.Err, ErrInvalidAction) ||
		errors.Is(e.Err, ErrInvalidDate)
}

func invalid(op string, err error, msg string) *Error {
	return &Error{Op: op, Status: 400, Message: msg, Err: err}
}

// Message returns the human-readable text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again."
	}
	return "Something went wrong. Please try again."
}
