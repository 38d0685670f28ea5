package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studybuddy/internal/llm"
)

var syllabusFile = File{Name: "syllabus.txt", Data: []byte("Unit 1: Cells\nUnit 2: Genetics\n")}

func TestLLMGateway_ParseSyllabus(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"topics": []string{" Cells ", "", "Genetics"}}))
	g := NewLLMGateway(mock, nil)

	topics, err := g.ParseSyllabus(context.Background(), syllabusFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cells", "Genetics"}, topics)

	call := mock.LastCall()
	assert.Equal(t, TopicsSchema, call.Schema)
	assert.Contains(t, call.Messages[0].Content, "Unit 2: Genetics")
}

func TestLLMGateway_ParseSyllabusUnreadable(t *testing.T) {
	mock := llm.NewMockProvider()
	g := NewLLMGateway(mock, nil)

	_, err := g.ParseSyllabus(context.Background(), File{Name: "blank.txt", Data: []byte("  \n ")})
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, 400, gerr.Status)
	assert.Equal(t, "Could not extract text from PDF.", gerr.Message)
	assert.Zero(t, mock.CallCount())
}

func TestLLMGateway_GenerateQuiz(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(
		"Sure! ```json\n" +
			`{"quiz":[{"id":1,"question":"Unit of force?","options":["Newton","Joule","Watt","Pascal"],"correctAnswer":"Newton"}]}` +
			"\n```"))
	g := NewLLMGateway(mock, nil)

	items, err := g.GenerateQuiz(context.Background(), QuizRequest{Topic: " Dynamics "})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Len(t, items[0].Options, 4)

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "Topic: Dynamics")
	assert.Contains(t, prompt, "Number of questions: 5")
	assert.Contains(t, prompt, "Difficulty: medium")
}

func TestLLMGateway_GenerateQuizFullSyllabus(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"quiz": []map[string]any{
		{"id": "a", "question": "Q", "options": []string{"x", "y"}, "correctAnswer": "y"},
	}}))
	g := NewLLMGateway(mock, nil)

	_, err := g.GenerateQuiz(context.Background(), QuizRequest{
		FullSyllabusTopics: []string{"Cells", "Genetics"},
		NumQuestions:       100,
		Difficulty:         DifficultyEasy,
	})
	require.NoError(t, err)

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "Topics: Cells, Genetics")
	assert.Contains(t, prompt, "Number of questions: 30")
	assert.Contains(t, prompt, "Difficulty: easy")
}

func TestLLMGateway_GenerateQuizUnusable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{"quiz": []map[string]any{
		{"question": "Q", "options": []string{"x", "y"}, "correctAnswer": "z"},
	}}))
	g := NewLLMGateway(mock, nil)

	_, err := g.GenerateQuiz(context.Background(), QuizRequest{Topic: "Optics"})
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.False(t, gerr.Validation())
}

func TestLLMGateway_ProviderFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("503")}})
	g := NewLLMGateway(mock, nil)

	_, err := g.ReportSummary(context.Background(), SummaryRequest{Topic: "Optics"})
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, 503, gerr.Status)

	var unavailable *llm.ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavailable))
}

func TestLLMGateway_ReportSummaryPrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]string{"summary": " Nice work. "}))
	g := NewLLMGateway(mock, nil)

	summary, err := g.ReportSummary(context.Background(), SummaryRequest{
		Topic: "Optics",
		Results: []SummaryItem{
			{Question: "Q1", UserAnswer: "A", IsCorrect: true},
			{Question: "Q2", IsCorrect: false},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Nice work.", summary)

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "Score: 1/2")
	assert.Contains(t, prompt, "Your answer: Not answered")
}

func TestLLMGateway_ProcessNotes(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]string{"processed_text": "- cells divide"}))
	g := NewLLMGateway(mock, nil)

	text, err := g.ProcessNotes(context.Background(), File{Name: "n.md", Data: []byte("Cells divide by mitosis.")}, ActionSummarize)
	require.NoError(t, err)
	assert.Equal(t, "- cells divide", text)
	assert.Contains(t, mock.LastCall().Messages[0].Content, "Summarize the following text")

	_, err = g.ProcessNotes(context.Background(), File{Name: "n.md", Data: []byte("x")}, "shorten")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, 1, mock.CallCount())
}

func TestLLMGateway_StudyPlanUsesCurrentDate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]string{"plan_text": "Day 1"}))
	g := NewLLMGateway(mock, nil)
	g.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

	plan, err := g.StudyPlan(context.Background(), "2026-11-01", syllabusFile)
	require.NoError(t, err)
	assert.Equal(t, "Day 1", plan)

	prompt := mock.LastCall().Messages[0].Content
	assert.Contains(t, prompt, "Current date: 2026-10-15")
	assert.Contains(t, prompt, "Exam date: 2026-11-01")
}

func TestLLMGateway_MaterialSuggestions(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockJSON(map[string]any{"materials": []map[string]string{}}),
		llm.MockResponse{Err: errors.New("boom")},
	)
	g := NewLLMGateway(mock, nil)

	mats, err := g.MaterialSuggestions(context.Background(), MaterialsRequest{Text: "Optics"})
	require.NoError(t, err)
	assert.Empty(t, mats)

	_, err = g.MaterialSuggestions(context.Background(), MaterialsRequest{Text: "Optics"})
	assert.Equal(t, "Failed to generate suggestions. The AI might be unavailable.", Message(err))

	_, err = g.MaterialSuggestions(context.Background(), MaterialsRequest{File: File{Name: "img.png", Data: []byte{0, 1, 2}}})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestLLMGateway_ChatWindows(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("  You are improving!  "))
	g := NewLLMGateway(mock, nil)

	var history []ChatTurn
	for i := 0; i < 10; i++ {
		role := ChatRoleUser
		if i%2 == 1 {
			role = ChatRoleBot
		}
		history = append(history, ChatTurn{Role: role, Text: "turn-" + string(rune('a'+i))})
	}
	perf := []Performance{
		{Topic: "T1", Score: "1/5"}, {Topic: "T2", Score: "2/5"},
		{Topic: "T3", Score: "3/5"}, {Topic: "T4", Score: "4/5"},
	}

	reply, err := g.Chat(context.Background(), ChatRequest{Message: "How am I doing?", History: history, Performance: perf})
	require.NoError(t, err)
	assert.Equal(t, "You are improving!", reply)

	call := mock.LastCall()
	assert.Nil(t, call.Schema)
	prompt := call.Messages[0].Content
	assert.NotContains(t, prompt, "turn-d")
	assert.Contains(t, prompt, "Student: turn-e")
	assert.Contains(t, prompt, "Coach: turn-j")
	assert.NotContains(t, prompt, "'T1'")
	assert.Contains(t, prompt, "'T4', they scored 4/5")
	assert.True(t, strings.HasSuffix(prompt, "Student: How am I doing?\nCoach:"))
}

func TestLLMGateway_ChatEmptyContext(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Hi!"))
	g := NewLLMGateway(mock, nil)

	_, err := g.Chat(context.Background(), ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Contains(t, mock.LastCall().Messages[0].Content, "No quiz data available yet.")
}
