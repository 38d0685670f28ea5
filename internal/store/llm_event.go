package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const llmTable = "llm_requests"

var llmColumns = []string{
	"id", "created_at", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

// eventRepo implements EventRepo on the llm_requests table.
type eventRepo struct {
	drv *entsql.Driver
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(llmTable).
		Columns(llmColumns[1:]...).
		Values(
			time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(llmColumns...).
		From(entsql.Table(llmTable)).
		OrderBy(entsql.Desc("id"))
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return r.scan(ctx, sel)
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(llmColumns...).
		From(entsql.Table(llmTable)).
		Where(entsql.EQ("id", id))
	recs, err := r.scan(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *eventRepo) scan(ctx context.Context, sel *entsql.Selector) ([]LLMEventRecord, error) {
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEventRecord
	for rows.Next() {
		var (
			rec       LLMEventRecord
			createdAt int64
		)
		if err := rows.Scan(
			&rec.ID, &createdAt, &rec.Provider, &rec.Model, &rec.Purpose,
			&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success,
			&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
		); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MemoryEventRepo keeps LLM events in process memory. Used when history
// lives somewhere other than SQLite.
type MemoryEventRepo struct {
	mu     sync.Mutex
	events []LLMEventRecord
}

// NewMemoryEventRepo returns an empty MemoryEventRepo.
func NewMemoryEventRepo() *MemoryEventRepo {
	return &MemoryEventRepo{}
}

func (m *MemoryEventRepo) AppendLLMRequest(_ context.Context, data LLMRequestEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, LLMEventRecord{
		ID:                  len(m.events) + 1,
		Timestamp:           time.Now(),
		LLMRequestEventData: data,
	})
	return nil
}

func (m *MemoryEventRepo) QueryLLMEvents(_ context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []LLMEventRecord
	for _, e := range m.events {
		if opts.Purpose != "" && e.Purpose != opts.Purpose {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryEventRepo) GetLLMEvent(_ context.Context, id int) (*LLMEventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}
