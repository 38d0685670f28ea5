package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/pdftext"
)

// Default question count and difficulty when a request leaves them unset.
const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 30
	DefaultDifficulty   = DifficultyMedium
)

var _ Gateway = (*LLMGateway)(nil)

// LLMGateway implements Gateway in-process on top of an LLM provider.
type LLMGateway struct {
	provider llm.Provider
	log      *zap.Logger
	now      func() time.Time
}

// NewLLMGateway creates a gateway that answers with provider.
func NewLLMGateway(provider llm.Provider, log *zap.Logger) *LLMGateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMGateway{provider: provider, log: log, now: time.Now}
}

func (g *LLMGateway) ParseSyllabus(ctx context.Context, syllabus File) ([]string, error) {
	text, err := g.fileText(OpParseSyllabus, syllabus, "No selected file.", "Could not extract text from PDF.")
	if err != nil {
		return nil, err
	}

	var out topicsPayload
	if err := g.generate(ctx, OpParseSyllabus, syllabusSystem, "Syllabus text:\n---\n"+clip(text)+"\n---", TopicsSchema, &out); err != nil {
		return nil, err
	}

	topics := make([]string, 0, len(out.Topics))
	for _, t := range out.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics, nil
}

func (g *LLMGateway) GenerateQuiz(ctx context.Context, req QuizRequest) ([]QuizItem, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" && len(req.FullSyllabusTopics) == 0 {
		return nil, invalid(OpGenerateQuiz, ErrMissingInput, "Topic or full syllabus topics are required.")
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = DefaultNumQuestions
	}
	req.NumQuestions = min(req.NumQuestions, MaxNumQuestions)
	if !req.Difficulty.Valid() {
		req.Difficulty = DefaultDifficulty
	}

	var out quizPayload
	if err := g.generate(ctx, OpGenerateQuiz, quizSystem, quizPrompt(req), QuizSchema, &out); err != nil {
		return nil, err
	}
	items := normalizeQuiz(out.Quiz)
	if len(items) == 0 {
		return nil, &Error{Op: OpGenerateQuiz, Status: http.StatusInternalServerError, Message: "The generated quiz had no usable questions."}
	}
	return items, nil
}

func (g *LLMGateway) ReportSummary(ctx context.Context, req SummaryRequest) (string, error) {
	var out summaryPayload
	if err := g.generate(ctx, OpReportSummary, summarySystem, summaryPrompt(req), SummarySchema, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Summary), nil
}

func (g *LLMGateway) VideoSuggestions(ctx context.Context, topic string) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, invalid(OpVideoSuggestions, ErrMissingInput, "Topic is required.")
	}
	var out videoPayload
	if err := g.generate(ctx, OpVideoSuggestions, videoSystem, "The student is struggling with: "+topic, VideoSchema, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (g *LLMGateway) ProcessNotes(ctx context.Context, notes File, action NoteAction) (string, error) {
	if notes.Empty() {
		return "", invalid(OpProcessNotes, ErrMissingFile, "No notes file provided.")
	}
	instruction, ok := noteInstructions[action]
	if !ok {
		return "", invalid(OpProcessNotes, ErrInvalidAction, "Invalid action specified.")
	}
	text, err := g.fileText(OpProcessNotes, notes, "No notes file provided.", "Could not extract text from the provided notes.")
	if err != nil {
		return "", err
	}

	var out notesPayload
	prompt := "Instruction: " + instruction + "\n\nText to process:\n---\n" + clip(text) + "\n---"
	if err := g.generate(ctx, OpProcessNotes, "You help students study from their own notes.", prompt, NotesSchema, &out); err != nil {
		return "", err
	}
	return out.ProcessedText, nil
}

func (g *LLMGateway) StudyPlan(ctx context.Context, examDate string, syllabus File) (string, error) {
	if err := checkPlanInput(examDate, syllabus); err != nil {
		return "", err
	}
	text, err := g.fileText(OpStudyPlan, syllabus, "No syllabus file provided.", "Could not extract text from syllabus PDF.")
	if err != nil {
		return "", err
	}

	prompt := "Current date: " + g.now().Format(ExamDateLayout) +
		"\nExam date: " + strings.TrimSpace(examDate) +
		"\n\nSyllabus topics:\n---\n" + clip(text) + "\n---"
	var out planPayload
	if err := g.generate(ctx, OpStudyPlan, planSystem, prompt, PlanSchema, &out); err != nil {
		return "", err
	}
	return out.PlanText, nil
}

func (g *LLMGateway) MaterialSuggestions(ctx context.Context, req MaterialsRequest) ([]Material, error) {
	text := req.Text
	if !req.File.Empty() {
		extracted, err := pdftext.Extract(req.File.Name, req.File.Data)
		if err != nil {
			g.log.Debug("material syllabus unreadable", zap.String("file", req.File.Name), zap.Error(err))
		}
		text = extracted
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid(OpMaterialSuggestions, ErrMissingInput, "Syllabus content not provided or could not be read.")
	}

	var out materialsPayload
	if err := g.generate(ctx, OpMaterialSuggestions, materialsSystem, "Syllabus:\n---\n"+clip(text)+"\n---", MaterialsSchema, &out); err != nil {
		var gerr *Error
		if errors.As(err, &gerr) {
			gerr.Message = "Failed to generate suggestions. The AI might be unavailable."
		}
		return nil, err
	}
	return out.Materials, nil
}

func (g *LLMGateway) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", invalid(OpChat, ErrMissingInput, "No message provided.")
	}

	ctx = llm.WithPurpose(ctx, OpChat)
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      coachSystem,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: chatPrompt(req)}},
		MaxTokens:   512,
		Temperature: 0.7,
	})
	if err != nil {
		return "", providerError(OpChat, err, "An error occurred in the chat service.")
	}
	return resp.Text(), nil
}

// fileText validates an uploaded file and extracts its text.
func (g *LLMGateway) fileText(op string, f File, missingMsg, unreadableMsg string) (string, error) {
	if f.Empty() {
		return "", invalid(op, ErrMissingFile, missingMsg)
	}
	text, err := pdftext.Extract(f.Name, f.Data)
	if err != nil {
		g.log.Debug("document unreadable", zap.String("op", op), zap.String("file", f.Name), zap.Error(err))
		return "", invalid(op, errors.Join(ErrMissingInput, err), unreadableMsg)
	}
	return text, nil
}

// generate runs one structured request and decodes the validated reply.
func (g *LLMGateway) generate(ctx context.Context, op, system, user string, schema *llm.Schema, out any) error {
	ctx = llm.WithPurpose(ctx, op)
	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Schema:      schema,
		MaxTokens:   4096,
		Temperature: 0.4,
	})
	if err != nil {
		return providerError(op, err, "The AI service is unavailable right now. Please try again.")
	}
	return decodeLLM(op, resp, out)
}

// providerError wraps a provider failure with the status and message the
// backend reports for it.
func providerError(op string, err error, fallback string) *Error {
	return &Error{Op: op, Status: llm.HTTPStatus(err), Message: llm.UserMessage(err, fallback), Err: err}
}
