package quiz

import (
	"errors"
	"strings"

	"github.com/abhisek/studybuddy/internal/gateway"
)

// FullSyllabus is the selection value meaning "every parsed topic".
const FullSyllabus = "full-syllabus"

// FullSyllabusTopic is the display topic of a full-syllabus quiz.
const FullSyllabusTopic = "Full Syllabus Review"

// Setup limits.
const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 30
	MaxDurationMinutes  = 180
)

// Validation errors returned by Resolve. None of them changes any state.
var (
	ErrNoValidTopic         = errors.New("no valid topic")
	ErrInvalidQuestionCount = errors.New("invalid question count")
	ErrInvalidDuration      = errors.New("invalid duration")
	ErrInvalidDifficulty    = errors.New("invalid difficulty")
)

var messages = map[error]string{
	ErrNoValidTopic:         "Please select a valid topic!",
	ErrInvalidQuestionCount: "Please choose between 1 and 30 questions.",
	ErrInvalidDuration:      "Please enter a duration between 0 and 180 minutes.",
	ErrInvalidDifficulty:    "Please choose easy, medium or hard.",
}

// Message returns the text shown for a validation error, or "" if err is
// not one.
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return ""
}

// Setup is the quiz setup form. Topics come either from typed syllabus text
// (one per line) or from a parsed syllabus file; a parsed file takes
// precedence and also enables the full-syllabus option.
type Setup struct {
	SyllabusText    string
	ParsedTopics    []string
	SourceFile      string
	Selected        string
	NumQuestions    int
	Difficulty      gateway.Difficulty
	DurationMinutes int
}

// NewSetup returns a setup form in its initial state.
func NewSetup() Setup {
	return Setup{
		NumQuestions: DefaultNumQuestions,
		Difficulty:   gateway.DifficultyMedium,
	}
}

// Reset restores the initial state. The duration goes back to 0 (untimed).
func (s *Setup) Reset() {
	*s = NewSetup()
}

// Option is one entry of the topic selector.
type Option struct {
	Value string
	Label string
}

// TypedTopics returns the non-blank lines of the syllabus text.
func (s Setup) TypedTopics() []string {
	var topics []string
	for _, line := range strings.Split(s.SyllabusText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			topics = append(topics, line)
		}
	}
	return topics
}

// Options lists the selectable topics. The full-syllabus option comes first
// and only exists when a syllabus file was parsed.
func (s Setup) Options() []Option {
	if len(s.ParsedTopics) > 0 {
		opts := make([]Option, 0, len(s.ParsedTopics)+1)
		opts = append(opts, Option{Value: FullSyllabus, Label: "--- Quiz on Full Syllabus ---"})
		for _, t := range s.ParsedTopics {
			opts = append(opts, Option{Value: t, Label: t})
		}
		return opts
	}

	typed := s.TypedTopics()
	opts := make([]Option, 0, len(typed))
	for _, t := range typed {
		opts = append(opts, Option{Value: t, Label: t})
	}
	return opts
}

// Request is a validated quiz request.
type Request struct {
	// Topic is what the quiz is recorded under.
	Topic           string
	Quiz            gateway.QuizRequest
	DurationMinutes int
}

// Resolve validates the form. An empty selection means the first option.
func (s Setup) Resolve() (Request, error) {
	opts := s.Options()
	if len(opts) == 0 {
		return Request{}, ErrNoValidTopic
	}

	selected := strings.TrimSpace(s.Selected)
	if selected == "" {
		selected = opts[0].Value
	}
	found := false
	for _, o := range opts {
		if o.Value == selected {
			found = true
			break
		}
	}
	if !found {
		return Request{}, ErrNoValidTopic
	}

	if s.NumQuestions < 1 || s.NumQuestions > MaxNumQuestions {
		return Request{}, ErrInvalidQuestionCount
	}
	if s.DurationMinutes < 0 || s.DurationMinutes > MaxDurationMinutes {
		return Request{}, ErrInvalidDuration
	}
	difficulty := s.Difficulty
	if difficulty == "" {
		difficulty = gateway.DifficultyMedium
	}
	if !difficulty.Valid() {
		return Request{}, ErrInvalidDifficulty
	}

	req := Request{
		DurationMinutes: s.DurationMinutes,
		Quiz: gateway.QuizRequest{
			NumQuestions: s.NumQuestions,
			Difficulty:   difficulty,
		},
	}
	if selected == FullSyllabus {
		req.Topic = FullSyllabusTopic
		req.Quiz.FullSyllabusTopics = append([]string(nil), s.ParsedTopics...)
	} else {
		req.Topic = selected
		req.Quiz.Topic = selected
	}
	return req, nil
}
