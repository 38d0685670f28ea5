package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestHistoryEmptyOnFirstRun(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHistory(kv)
			ctx := context.Background()

			reports, err := h.Reports(ctx)
			require.NoError(t, err)
			assert.NotNil(t, reports)
			assert.Empty(t, reports)

			notes, err := h.Notes(ctx)
			require.NoError(t, err)
			assert.Empty(t, notes)
		})
	}
}

func TestHistoryReportsInInsertionOrder(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHistory(kv)
			ctx := context.Background()

			for _, topic := range []string{"Thermodynamics", "Optics", "Waves"} {
				_, err := h.AppendReport(ctx, Report{Topic: topic, Score: 1, Total: 3})
				require.NoError(t, err)
			}

			reports, err := h.Reports(ctx)
			require.NoError(t, err)
			require.Len(t, reports, 3)
			assert.Equal(t, "Thermodynamics", reports[0].Topic)
			assert.Equal(t, "Waves", reports[2].Topic)

			newest := NewestFirst(reports)
			assert.Equal(t, "Waves", newest[0].Topic)
			assert.Equal(t, "Thermodynamics", newest[2].Topic)
		})
	}
}

func TestHistoryReportIDsUniqueUnderSameMillisecond(t *testing.T) {
	h := NewHistory(NewMemoryKV())
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h.SetClock(fixedClock(ts))
	ctx := context.Background()

	a, err := h.AppendReport(ctx, Report{Topic: "a"})
	require.NoError(t, err)
	b, err := h.AppendReport(ctx, Report{Topic: "b"})
	require.NoError(t, err)

	assert.Equal(t, ts.UnixMilli(), a.ID)
	assert.Equal(t, a.ID+1, b.ID)
	assert.Equal(t, "Mar 1, 2026", a.Date)
	assert.NotNil(t, a.Breakdown)
}

func TestHistoryReportByID(t *testing.T) {
	h := NewHistory(NewMemoryKV())
	ctx := context.Background()

	saved, err := h.AppendReport(ctx, Report{Topic: "Optics"})
	require.NoError(t, err)

	got, err := h.ReportByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Optics", got.Topic)

	missing, err := h.ReportByID(ctx, saved.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistoryNotesTitleAndOrder(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHistory(kv)
			ctx := context.Background()

			n1, err := h.AppendNote(ctx, "summarize", "chapter1.pdf", "short")
			require.NoError(t, err)
			_, err = h.AppendNote(ctx, "expand", "chapter2.pdf", "long")
			require.NoError(t, err)

			assert.Equal(t, "Summarize of chapter1.pdf", n1.Title)

			notes, err := h.Notes(ctx)
			require.NoError(t, err)
			require.Len(t, notes, 2)
			assert.Equal(t, "Expand of chapter2.pdf", notes[1].Title)
			assert.Greater(t, notes[1].ID, notes[0].ID)
		})
	}
}

func TestHistoryLogsAreIndependent(t *testing.T) {
	kv := NewMemoryKV()
	h := NewHistory(kv)
	ctx := context.Background()

	_, err := h.AppendNote(ctx, "summarize", "a.pdf", "x")
	require.NoError(t, err)

	reports, err := h.Reports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)

	_, ok, err := kv.Get(ctx, ReportsKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistoryConcurrentAppendsLoseNothing(t *testing.T) {
	const writers = 20
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHistory(kv)
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := h.AppendReport(ctx, Report{Topic: "concurrent"})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			reports, err := h.Reports(ctx)
			require.NoError(t, err)
			assert.Len(t, reports, writers)

			seen := make(map[int64]bool)
			for _, r := range reports {
				assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
				seen[r.ID] = true
			}
		})
	}
}

func TestLogRejectsCorruptValue(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Update(ctx, ReportsKey, func([]byte) ([]byte, error) {
		return []byte("{not json"), nil
	}))

	h := NewHistory(kv)
	_, err := h.Reports(ctx)
	assert.Error(t, err)

	_, err = h.AppendReport(ctx, Report{Topic: "x"})
	assert.Error(t, err)

	raw, _, _ := kv.Get(ctx, ReportsKey)
	assert.Equal(t, "{not json", string(raw))
}

func TestNoteTitle(t *testing.T) {
	tests := []struct {
		action, file, want string
	}{
		{"summarize", "a.pdf", "Summarize of a.pdf"},
		{"expand", "notes.pdf", "Expand of notes.pdf"},
		{"Expand", "x.pdf", "Expand of x.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NoteTitle(tt.action, tt.file))
	}
}
