// Package server exposes a Gateway as the study backend's REST API so other
// clients can share one AI configuration.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/llm"
)

// Banner is the body of GET /.
const Banner = "StudyBuddy backend is running!"

// maxUpload bounds multipart request bodies.
const maxUpload = 32 << 20

// Server serves the eight backend operations.
type Server struct {
	gw  gateway.Gateway
	log *zap.Logger
}

// New creates a server answering with gw.
func New(gw gateway.Gateway, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{gw: gw, log: log}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, tagLLMRequest, s.logRequests, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, Banner)
	})
	r.Post("/"+gateway.OpParseSyllabus, s.parseSyllabus)
	r.Post("/"+gateway.OpGenerateQuiz, s.generateQuiz)
	r.Post("/"+gateway.OpReportSummary, s.reportSummary)
	r.Post("/"+gateway.OpVideoSuggestions, s.videoSuggestions)
	r.Post("/"+gateway.OpProcessNotes, s.processNotes)
	r.Post("/"+gateway.OpStudyPlan, s.studyPlan)
	r.Post("/"+gateway.OpMaterialSuggestions, s.materialSuggestions)
	r.Post("/"+gateway.OpChat, s.chat)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("backend listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("backend shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// tagLLMRequest carries chi's request ID into the provider chain so model
// calls log under the same ID as the HTTP request.
func tagLLMRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := llm.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) parseSyllabus(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	topics, err := s.gw.ParseSyllabus(r.Context(), formFile(r, "syllabus"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) generateQuiz(w http.ResponseWriter, r *http.Request) {
	var req gateway.QuizRequest
	if !s.decode(w, r, &req) {
		return
	}
	items, err := s.gw.GenerateQuiz(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": items})
}

func (s *Server) reportSummary(w http.ResponseWriter, r *http.Request) {
	var req gateway.SummaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	summary, err := s.gw.ReportSummary(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (s *Server) videoSuggestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	suggestions, err := s.gw.VideoSuggestions(r.Context(), req.Topic)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) processNotes(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	text, err := s.gw.ProcessNotes(r.Context(), formFile(r, "notes"), gateway.NoteAction(r.FormValue("action")))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"processed_text": text})
}

func (s *Server) studyPlan(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	plan, err := s.gw.StudyPlan(r.Context(), r.FormValue("exam_date"), formFile(r, "syllabus"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan_text": plan})
}

func (s *Server) materialSuggestions(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	req := gateway.MaterialsRequest{
		Text: r.FormValue("syllabus_text"),
		File: formFile(r, "syllabus_file"),
	}
	materials, err := s.gw.MaterialSuggestions(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	if materials == nil {
		materials = []gateway.Material{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": materials})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req gateway.ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	reply, err := s.gw.Chat(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": reply})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpload)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be valid JSON.")
		return false
	}
	return true
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "Could not read the uploaded form.")
		return false
	}
	return true
}

// formFile reads an uploaded file; a missing part is an empty File so the
// gateway reports it.
func formFile(r *http.Request, field string) gateway.File {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return gateway.File{}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return gateway.File{}
	}
	return gateway.File{Name: hdr.Filename, Data: data}
}

// fail maps a gateway error to its status: validation errors are 400,
// everything else keeps the gateway's status or becomes 500.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Validation():
			status = http.StatusBadRequest
		case gerr.Status >= 400:
			status = gerr.Status
		}
	}
	if status >= 500 {
		s.log.Error("backend operation failed", zap.Error(err))
	}
	writeError(w, status, gateway.Message(err))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
