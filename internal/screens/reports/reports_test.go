package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/studybuddy/internal/store"
)

type failingSource struct{}

func (failingSource) Reports(context.Context) ([]store.Report, error) {
	return nil, errors.New("disk on fire")
}

func load(t *testing.T, s *ReportsScreen) {
	t.Helper()
	cmd := s.Refresh()
	s.Update(cmd())
}

func TestEmptyState(t *testing.T) {
	s := New(store.NewHistory(store.NewMemoryKV()))
	load(t, s)

	if s.errMsg != "" {
		t.Fatalf("unexpected error: %s", s.errMsg)
	}
	if !strings.Contains(s.View(100, 30), EmptyMessage) {
		t.Error("empty message not shown")
	}
}

func TestMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	h := store.NewHistory(store.NewMemoryKV())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h.SetClock(func() time.Time { now = now.Add(time.Minute); return now })

	if _, err := h.AppendReport(ctx, store.Report{Topic: "R1", Score: 1, Total: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.AppendReport(ctx, store.Report{Topic: "R2", Score: 2, Total: 2}); err != nil {
		t.Fatal(err)
	}

	s := New(h)
	load(t, s)

	if len(s.reports) != 2 || s.reports[0].Topic != "R2" || s.reports[1].Topic != "R1" {
		t.Fatalf("order = %+v", s.reports)
	}
	view := s.View(100, 30)
	if strings.Index(view, "R2") > strings.Index(view, "R1") {
		t.Error("R2 should render above R1")
	}
}

func TestLoadErrorShown(t *testing.T) {
	s := New(failingSource{})
	load(t, s)
	if !strings.Contains(s.View(100, 30), "disk on fire") {
		t.Error("error not rendered")
	}
}

func TestStaleLoadIgnored(t *testing.T) {
	ctx := context.Background()
	h := store.NewHistory(store.NewMemoryKV())
	s := New(h)

	stale := s.Refresh()()
	h.AppendReport(ctx, store.Report{Topic: "Fresh", Total: 1})
	fresh := s.Refresh()()

	s.Update(fresh)
	s.Update(stale)
	if len(s.reports) != 1 {
		t.Errorf("stale load replaced fresh data: %+v", s.reports)
	}
}
