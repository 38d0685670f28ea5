package store

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// Keys the two history logs are stored under.
const (
	ReportsKey = "quizReports"
	NotesKey   = "savedNotes"
)

// Date layouts for the human-readable date stamps on records.
const (
	ReportDateLayout = "Jan 2, 2006"
	NoteDateLayout   = "Jan 2, 2006 3:04 PM"
)

// BreakdownEntry is one question's outcome within a Report.
type BreakdownEntry struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// Report is the persisted record of one submitted quiz.
type Report struct {
	ID        int64            `json:"id"`
	Date      string           `json:"date"`
	Topic     string           `json:"topic"`
	Score     int              `json:"score"`
	Total     int              `json:"total"`
	Summary   string           `json:"summary"`
	Breakdown []BreakdownEntry `json:"breakdown"`
}

// NoteRecord is the persisted output of one notes-processing request.
type NoteRecord struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// History is the pair of append-only logs the app keeps: quiz reports and
// processed notes. Each log is keyed independently.
type History struct {
	reports *Log[Report]
	notes   *Log[NoteRecord]
	now     func() time.Time
}

// NewHistory returns the history logs stored in kv.
func NewHistory(kv KV) *History {
	return &History{
		reports: NewLog[Report](kv, ReportsKey),
		notes:   NewLog[NoteRecord](kv, NotesKey),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for IDs and date stamps.
func (h *History) SetClock(now func() time.Time) {
	h.now = now
}

// AppendReport stamps r with a unique ID and today's date and appends it.
func (h *History) AppendReport(ctx context.Context, r Report) (Report, error) {
	return h.reports.AppendWith(ctx, func(existing []Report) (Report, error) {
		now := h.now()
		var last int64
		if n := len(existing); n > 0 {
			last = existing[n-1].ID
		}
		r.ID = nextID(now, last)
		r.Date = now.Format(ReportDateLayout)
		if r.Breakdown == nil {
			r.Breakdown = []BreakdownEntry{}
		}
		return r, nil
	})
}

// Reports returns every report in insertion order.
func (h *History) Reports(ctx context.Context) ([]Report, error) {
	return h.reports.ListAll(ctx)
}

// ReportByID returns the report with id, or nil if there is none.
func (h *History) ReportByID(ctx context.Context, id int64) (*Report, error) {
	all, err := h.reports.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// AppendNote saves processed notes under a title derived from the action
// and source file name.
func (h *History) AppendNote(ctx context.Context, action, filename, text string) (NoteRecord, error) {
	return h.notes.AppendWith(ctx, func(existing []NoteRecord) (NoteRecord, error) {
		now := h.now()
		var last int64
		if n := len(existing); n > 0 {
			last = existing[n-1].ID
		}
		return NoteRecord{
			ID:    nextID(now, last),
			Date:  now.Format(NoteDateLayout),
			Title: NoteTitle(action, filename),
			Text:  text,
		}, nil
	})
}

// Notes returns every saved note in insertion order.
func (h *History) Notes(ctx context.Context) ([]NoteRecord, error) {
	return h.notes.ListAll(ctx)
}

// NoteByID returns the note with id, or nil if there is none.
func (h *History) NoteByID(ctx context.Context, id int64) (*NoteRecord, error) {
	all, err := h.notes.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// NoteTitle renders "<Action> of <filename>", e.g. "Summarize of ch1.pdf".
func NoteTitle(action, filename string) string {
	action = strings.TrimSpace(action)
	if action != "" {
		r := []rune(action)
		r[0] = unicode.ToUpper(r[0])
		action = string(r)
	}
	return action + " of " + filename
}

// nextID derives a millisecond timestamp ID that stays strictly greater
// than the previous record's ID.
func nextID(now time.Time, last int64) int64 {
	id := now.UnixMilli()
	if id <= last {
		id = last + 1
	}
	return id
}
