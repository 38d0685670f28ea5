package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", 5*time.Second, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_GenerateQuiz(t *testing.T) {
	var got QuizRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate-quiz", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{"quiz": []map[string]any{
			{"id": 1, "question": "What is ATP?", "options": []string{"Energy", "Water"}, "correctAnswer": "Energy"},
			{"id": 2, "question": "What is DNA?", "options": []string{"Sugar", "Genes"}, "correctAnswer": "Genes"},
		}})
	})

	items, err := c.GenerateQuiz(context.Background(), QuizRequest{
		FullSyllabusTopics: []string{"Cells", "Genetics"},
		NumQuestions:       2,
		Difficulty:         DifficultyHard,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "Genes", items[1].CorrectAnswer)

	assert.Equal(t, []string{"Cells", "Genetics"}, got.FullSyllabusTopics)
	assert.Equal(t, DifficultyHard, got.Difficulty)
	assert.Empty(t, got.Topic)
}

func TestHTTPClient_NonSuccessCarriesBackendMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Could not extract text from PDF."})
	})

	_, err := c.ParseSyllabus(context.Background(), File{Name: "s.pdf", Data: []byte("%PDF-1.4")})
	var gerr *Error
	require.True(t, errors.As(err, &gerr), "got %T", err)
	assert.Equal(t, http.StatusBadRequest, gerr.Status)
	assert.Equal(t, "Could not extract text from PDF.", gerr.Message)
	assert.Equal(t, OpParseSyllabus, gerr.Op)
}

func TestHTTPClient_NonSuccessWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.VideoSuggestions(context.Background(), "optics")
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadGateway, gerr.Status)
	assert.Contains(t, gerr.Message, "502")
}

func TestHTTPClient_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"wrong shape", `{"summary": 42}`},
		{"missing key", `{"text": "hi"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				io.WriteString(w, tt.body)
			})
			_, err := c.ReportSummary(context.Background(), SummaryRequest{Topic: "Optics"})
			var gerr *Error
			require.True(t, errors.As(err, &gerr), "got %T %v", err, err)
			assert.Equal(t, "The study backend returned an unexpected response.", gerr.Message)
		})
	}
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second, nil)
	_, err := c.Chat(context.Background(), ChatRequest{Message: "hello"})
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Zero(t, gerr.Status)
	assert.Contains(t, gerr.Message, "Could not reach")
}

func TestHTTPClient_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		switch r.URL.Path {
		case "/process-notes":
			assert.Equal(t, "expand", r.FormValue("action"))
			f, hdr, err := r.FormFile("notes")
			require.NoError(t, err)
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, "bio.txt", hdr.Filename)
			assert.Equal(t, "mitosis", string(data))
			writeJSON(w, http.StatusOK, map[string]string{"processed_text": "Mitosis, explained."})
		case "/generate-study-plan":
			assert.Equal(t, "2026-12-01", r.FormValue("exam_date"))
			_, _, err := r.FormFile("syllabus")
			require.NoError(t, err)
			writeJSON(w, http.StatusOK, map[string]string{"plan_text": "Day 1: Cells"})
		case "/get-material-suggestions":
			assert.Equal(t, "Thermodynamics", r.FormValue("syllabus_text"))
			writeJSON(w, http.StatusOK, map[string]any{"materials": []map[string]string{
				{"title": "Heat", "description": "A book", "link": "https://example.com/heat"},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	text, err := c.ProcessNotes(ctx, File{Name: "bio.txt", Data: []byte("mitosis")}, ActionExpand)
	require.NoError(t, err)
	assert.Equal(t, "Mitosis, explained.", text)

	plan, err := c.StudyPlan(ctx, "2026-12-01", File{Name: "s.txt", Data: []byte("Cells")})
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Cells", plan)

	mats, err := c.MaterialSuggestions(ctx, MaterialsRequest{Text: "Thermodynamics"})
	require.NoError(t, err)
	require.Len(t, mats, 1)
	assert.Equal(t, "https://example.com/heat", mats[0].Link)
}

func TestHTTPClient_ValidationBeforeCall(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx := context.Background()

	_, err := c.ParseSyllabus(ctx, File{})
	assert.ErrorIs(t, err, ErrMissingFile)

	_, err = c.GenerateQuiz(ctx, QuizRequest{NumQuestions: 5})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = c.ProcessNotes(ctx, File{Name: "n.pdf", Data: []byte("x")}, "translate")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = c.StudyPlan(ctx, "", File{Name: "s.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, "Please provide both an exam date and a syllabus PDF.", Message(err))

	_, err = c.StudyPlan(ctx, "next friday", File{Name: "s.pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = c.MaterialSuggestions(ctx, MaterialsRequest{Text: "  "})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = c.Chat(ctx, ChatRequest{})
	assert.ErrorIs(t, err, ErrMissingInput)

	assert.Zero(t, calls)
}

func TestHTTPClient_ChatSendsContext(t *testing.T) {
	var got ChatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]string{"response": "Keep going!"})
	})

	reply, err := c.Chat(context.Background(), ChatRequest{
		Message:     "How am I doing?",
		History:     []ChatTurn{{Role: ChatRoleUser, Text: "hi"}, {Role: ChatRoleBot, Text: "hello"}},
		Performance: []Performance{{Topic: "Optics", Score: "4/5"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Keep going!", reply)
	assert.Len(t, got.History, 2)
	assert.Equal(t, "4/5", got.Performance[0].Score)
}
