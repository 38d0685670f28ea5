package gateway

import (
	"context"
	"sync"
)

// Fake is an in-memory Gateway for tests. Each operation returns the
// matching canned result, or Err when set. Calls are counted per operation.
type Fake struct {
	Topics    []string
	Quiz      []QuizItem
	Summary   string
	Videos    []string
	Processed string
	Plan      string
	Materials []Material
	Reply     string

	// Err, when set, is returned by every operation. Errs overrides it per
	// operation name (the Op* constants).
	Err  error
	Errs map[string]error

	mu       sync.Mutex
	calls    map[string]int
	lastChat ChatRequest
	lastQuiz QuizRequest
}

var _ Gateway = (*Fake)(nil)

func (f *Fake) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
	if err, ok := f.Errs[op]; ok {
		return err
	}
	return f.Err
}

// Calls returns how many times op was called.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// LastChat returns the most recent chat request.
func (f *Fake) LastChat() ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastChat
}

// LastQuiz returns the most recent quiz request.
func (f *Fake) LastQuiz() QuizRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuiz
}

func (f *Fake) ParseSyllabus(_ context.Context, _ File) ([]string, error) {
	if err := f.record(OpParseSyllabus); err != nil {
		return nil, err
	}
	return f.Topics, nil
}

func (f *Fake) GenerateQuiz(_ context.Context, req QuizRequest) ([]QuizItem, error) {
	f.mu.Lock()
	f.lastQuiz = req
	f.mu.Unlock()
	if err := f.record(OpGenerateQuiz); err != nil {
		return nil, err
	}
	return f.Quiz, nil
}

func (f *Fake) ReportSummary(_ context.Context, _ SummaryRequest) (string, error) {
	if err := f.record(OpReportSummary); err != nil {
		return "", err
	}
	return f.Summary, nil
}

func (f *Fake) VideoSuggestions(_ context.Context, _ string) ([]string, error) {
	if err := f.record(OpVideoSuggestions); err != nil {
		return nil, err
	}
	return f.Videos, nil
}

func (f *Fake) ProcessNotes(_ context.Context, _ File, _ NoteAction) (string, error) {
	if err := f.record(OpProcessNotes); err != nil {
		return "", err
	}
	return f.Processed, nil
}

func (f *Fake) StudyPlan(_ context.Context, _ string, _ File) (string, error) {
	if err := f.record(OpStudyPlan); err != nil {
		return "", err
	}
	return f.Plan, nil
}

func (f *Fake) MaterialSuggestions(_ context.Context, _ MaterialsRequest) ([]Material, error) {
	if err := f.record(OpMaterialSuggestions); err != nil {
		return nil, err
	}
	return f.Materials, nil
}

func (f *Fake) Chat(_ context.Context, req ChatRequest) (string, error) {
	f.mu.Lock()
	f.lastChat = req
	f.mu.Unlock()
	if err := f.record(OpChat); err != nil {
		return "", err
	}
	return f.Reply, nil
}
