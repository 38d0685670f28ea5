package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const kvTable = "kv"

// ErrConflict is returned when an update keeps losing a race with other
// writers and gives up.
var ErrConflict = errors.New("store: concurrent update conflict")

// UpdateFunc receives the current value of a key (nil when the key is
// absent) and returns the value to store.
type UpdateFunc func(current []byte) ([]byte, error)

// KV is the durable key-value contract the history logs are built on.
// Update is a single atomic read-modify-write: no writer can observe or
// overwrite an intermediate state of another writer's update.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Update atomically replaces the value for key with fn's result.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// sqliteKV stores values in the kv table. The mutex serializes writers in
// this process; the transaction keeps each update atomic on disk.
type sqliteKV struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

func (k *sqliteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return getValue(ctx, k.drv, key)
}

func (k *sqliteKV) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	tx, err := k.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	current, _, err := getValue(ctx, tx, key)
	if err != nil {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, next, time.Now().UnixMilli()).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err = tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// querier is satisfied by both the driver and a transaction.
type querier interface {
	Query(ctx context.Context, query string, args, v any) error
}

func getValue(ctx context.Context, q querier, key string) ([]byte, bool, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(kvTable)).
		Where(entsql.EQ("key", key)).
		Query()

	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return nil, false, fmt.Errorf("read %q: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, fmt.Errorf("read %q: %w", key, err)
		}
		return nil, false, nil
	}

	var value []byte
	if err := rows.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scan %q: %w", key, err)
	}
	return value, true, nil
}

// MemoryKV is an in-process KV. Nothing survives the process; used by tests
// and the ephemeral backend.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current []byte
	if v, ok := m.values[key]; ok {
		current = append([]byte(nil), v...)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	m.values[key] = append([]byte(nil), next...)
	return nil
}
