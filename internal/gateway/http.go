package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/studybuddy/internal/llm"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://127.0.0.1:5000"

// maxResponseBytes bounds how much of a backend reply is read.
const maxResponseBytes = 8 << 20

var _ Gateway = (*HTTPClient)(nil)

// HTTPClient implements Gateway against the backend REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPClient creates a client for the backend at baseURL. A zero timeout
// means no client-side timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPClient) ParseSyllabus(ctx context.Context, syllabus File) ([]string, error) {
	if syllabus.Empty() {
		return nil, invalid(OpParseSyllabus, ErrMissingFile, "Please choose a syllabus file.")
	}
	body, ctype, err := multipartBody(nil, map[string]File{"syllabus": syllabus})
	if err != nil {
		return nil, &Error{Op: OpParseSyllabus, Message: "Could not read the syllabus file.", Err: err}
	}
	var out topicsPayload
	if err := c.do(ctx, OpParseSyllabus, ctype, body, TopicsSchema, &out); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

func (c *HTTPClient) GenerateQuiz(ctx context.Context, req QuizRequest) ([]QuizItem, error) {
	if strings.TrimSpace(req.Topic) == "" && len(req.FullSyllabusTopics) == 0 {
		return nil, invalid(OpGenerateQuiz, ErrMissingInput, "Topic or full syllabus topics are required.")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Op: OpGenerateQuiz, Message: "Could not encode the request.", Err: err}
	}
	var out quizPayload
	if err := c.do(ctx, OpGenerateQuiz, "application/json", bytes.NewReader(body), QuizSchema, &out); err != nil {
		return nil, err
	}
	items := normalizeQuiz(out.Quiz)
	if len(items) == 0 {
		return nil, &Error{Op: OpGenerateQuiz, Status: http.StatusOK, Message: "The generated quiz had no usable questions."}
	}
	return items, nil
}

func (c *HTTPClient) ReportSummary(ctx context.Context, req SummaryRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Op: OpReportSummary, Message: "Could not encode the request.", Err: err}
	}
	var out summaryPayload
	if err := c.do(ctx, OpReportSummary, "application/json", bytes.NewReader(body), SummarySchema, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *HTTPClient) VideoSuggestions(ctx context.Context, topic string) ([]string, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, invalid(OpVideoSuggestions, ErrMissingInput, "Topic is required.")
	}
	body, _ := json.Marshal(map[string]string{"topic": topic})
	var out videoPayload
	if err := c.do(ctx, OpVideoSuggestions, "application/json", bytes.NewReader(body), VideoSchema, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (c *HTTPClient) ProcessNotes(ctx context.Context, notes File, action NoteAction) (string, error) {
	if notes.Empty() {
		return "", invalid(OpProcessNotes, ErrMissingFile, "Please upload a notes file first.")
	}
	if !action.Valid() {
		return "", invalid(OpProcessNotes, ErrInvalidAction, "Invalid action specified.")
	}
	body, ctype, err := multipartBody(map[string]string{"action": string(action)}, map[string]File{"notes": notes})
	if err != nil {
		return "", &Error{Op: OpProcessNotes, Message: "Could not read the notes file.", Err: err}
	}
	var out notesPayload
	if err := c.do(ctx, OpProcessNotes, ctype, body, NotesSchema, &out); err != nil {
		return "", err
	}
	return out.ProcessedText, nil
}

func (c *HTTPClient) StudyPlan(ctx context.Context, examDate string, syllabus File) (string, error) {
	if err := checkPlanInput(examDate, syllabus); err != nil {
		return "", err
	}
	body, ctype, err := multipartBody(map[string]string{"exam_date": examDate}, map[string]File{"syllabus": syllabus})
	if err != nil {
		return "", &Error{Op: OpStudyPlan, Message: "Could not read the syllabus file.", Err: err}
	}
	var out planPayload
	if err := c.do(ctx, OpStudyPlan, ctype, body, PlanSchema, &out); err != nil {
		return "", err
	}
	return out.PlanText, nil
}

func (c *HTTPClient) MaterialSuggestions(ctx context.Context, req MaterialsRequest) ([]Material, error) {
	var (
		body  io.Reader
		ctype string
		err   error
	)
	switch {
	case !req.File.Empty():
		body, ctype, err = multipartBody(nil, map[string]File{"syllabus_file": req.File})
	case strings.TrimSpace(req.Text) != "":
		body, ctype, err = multipartBody(map[string]string{"syllabus_text": req.Text}, nil)
	default:
		return nil, invalid(OpMaterialSuggestions, ErrMissingInput, "Please provide a syllabus either by text or file.")
	}
	if err != nil {
		return nil, &Error{Op: OpMaterialSuggestions, Message: "Could not read the syllabus.", Err: err}
	}
	var out materialsPayload
	if err := c.do(ctx, OpMaterialSuggestions, ctype, body, MaterialsSchema, &out); err != nil {
		return nil, err
	}
	return out.Materials, nil
}

func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", invalid(OpChat, ErrMissingInput, "No message provided.")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Op: OpChat, Message: "Could not encode the request.", Err: err}
	}
	var out chatPayload
	if err := c.do(ctx, OpChat, "application/json", bytes.NewReader(body), ChatSchema, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// do posts body to /<op> and decodes a validated reply into out.
func (c *HTTPClient) do(ctx context.Context, op, contentType string, body io.Reader, schema *llm.Schema, out any) error {
	reqID := uuid.NewString()
	log := c.log.With(zap.String("op", op), zap.String("request_id", reqID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, body)
	if err != nil {
		return &Error{Op: op, Message: "Could not build the request.", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn("backend unreachable", zap.Error(err))
		msg := "Could not reach the study backend. Is it running?"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "The study backend took too long to answer."
		}
		return &Error{Op: op, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "Could not read the backend response.", Err: err}
	}

	log.Debug("backend call",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := backendMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("The study backend failed (%d %s).", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		log.Warn("backend error", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return &Error{Op: op, Status: resp.StatusCode, Message: msg}
	}

	return decodePayload(op, resp.StatusCode, schema, raw, out)
}

// backendMessage extracts the "error" field of an error body.
func backendMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}

// multipartBody encodes form fields and files as multipart/form-data.
func multipartBody(fields map[string]string, files map[string]File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for field, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func checkPlanInput(examDate string, syllabus File) error {
	if strings.TrimSpace(examDate) == "" || syllabus.Empty() {
		err := ErrMissingInput
		if syllabus.Empty() {
			err = ErrMissingFile
		}
		return invalid(OpStudyPlan, err, "Please provide both an exam date and a syllabus PDF.")
	}
	if _, err := time.Parse(ExamDateLayout, strings.TrimSpace(examDate)); err != nil {
		return invalid(OpStudyPlan, ErrInvalidDate, "Exam date must look like 2026-05-30.")
	}
	return nil
}
