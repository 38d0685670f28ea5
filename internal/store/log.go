package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Log is an append-only log of records stored as one JSON array under a
// single key. Records are returned in insertion order; an absent key reads
// as an empty log.
type Log[T any] struct {
	kv  KV
	key string
}

// NewLog returns the log stored under key.
func NewLog[T any](kv KV, key string) *Log[T] {
	return &Log[T]{kv: kv, key: key}
}

// Key returns the key the log is stored under.
func (l *Log[T]) Key() string {
	return l.key
}

// Append adds rec to the end of the log.
func (l *Log[T]) Append(ctx context.Context, rec T) error {
	_, err := l.AppendWith(ctx, func([]T) (T, error) { return rec, nil })
	return err
}

// AppendWith builds the record from the current contents and appends it in
// the same atomic update, so fields derived from earlier records (such as
// unique IDs) cannot race.
func (l *Log[T]) AppendWith(ctx context.Context, build func(existing []T) (T, error)) (T, error) {
	var appended T
	err := l.kv.Update(ctx, l.key, func(current []byte) ([]byte, error) {
		existing, err := decodeLog[T](current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.key, err)
		}
		rec, err := build(existing)
		if err != nil {
			return nil, err
		}
		appended = rec
		return json.Marshal(append(existing, rec))
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return appended, nil
}

// ListAll returns every record in insertion order.
func (l *Log[T]) ListAll(ctx context.Context) ([]T, error) {
	raw, ok, err := l.kv.Get(ctx, l.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	recs, err := decodeLog[T](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.key, err)
	}
	return recs, nil
}

func decodeLog[T any](raw []byte) ([]T, error) {
	recs := []T{}
	if len(raw) == 0 {
		return recs, nil
	}
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode log: %w", err)
	}
	if recs == nil {
		recs = []T{}
	}
	return recs, nil
}

// NewestFirst returns a reversed copy of recs for display.
func NewestFirst[T any](recs []T) []T {
	out := make([]T, len(recs))
	for i, r := range recs {
		out[len(recs)-1-i] = r
	}
	return out
}
