package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func openTestRedis(t *testing.T) *RedisKV {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisKV(client, "studybuddy:test:")
}

// kvBackends returns one fresh instance of every KV implementation.
func kvBackends(t *testing.T) map[string]KV {
	t.Helper()
	return map[string]KV{
		"sqlite": openTestStore(t).KV(),
		"memory": NewMemoryKV(),
		"redis":  openTestRedis(t),
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{kvTable, llmTable} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestMigrationIsRepeatable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.History().AppendNote(ctx, "summarize", "week1.pdf", "Forces."); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := migrate(ctx, s.drv); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	notes, err := s.History().Notes(ctx)
	if err != nil {
		t.Fatalf("notes: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("notes after migrate = %d, want 1", len(notes))
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studybuddy.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.History().AppendReport(ctx, Report{Topic: "Optics", Score: 1, Total: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	reports, err := s.History().Reports(ctx)
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 1 || reports[0].Topic != "Optics" {
		t.Errorf("reports after reopen = %+v", reports)
	}
}

func TestKVGetAbsent(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := kv.Get(context.Background(), "missing")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if ok || v != nil {
				t.Errorf("get missing = (%q, %v), want absent", v, ok)
			}
		})
	}
}

func TestKVUpdateSeesCurrentValue(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := kv.Update(ctx, "k", func(cur []byte) ([]byte, error) {
				if cur != nil {
					t.Errorf("first update saw %q, want nil", cur)
				}
				return []byte("one"), nil
			})
			if err != nil {
				t.Fatalf("update 1: %v", err)
			}

			err = kv.Update(ctx, "k", func(cur []byte) ([]byte, error) {
				return append(cur, "+two"...), nil
			})
			if err != nil {
				t.Fatalf("update 2: %v", err)
			}

			v, ok, err := kv.Get(ctx, "k")
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if string(v) != "one+two" {
				t.Errorf("value = %q, want one+two", v)
			}
		})
	}
}

func TestKVUpdateErrorLeavesValue(t *testing.T) {
	for name, kv := range kvBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_ = kv.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("keep"), nil })

			wantErr := fmt.Errorf("boom")
			err := kv.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, wantErr })
			if err == nil {
				t.Fatal("expected error")
			}

			v, _, _ := kv.Get(ctx, "k")
			if string(v) != "keep" {
				t.Errorf("value = %q, want keep", v)
			}
		})
	}
}

func TestOpenBackendUnknown(t *testing.T) {
	if _, err := OpenBackend(context.Background(), BackendOptions{Kind: "etcd"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpenBackendMemory(t *testing.T) {
	b, err := OpenBackend(context.Background(), BackendOptions{Kind: BackendMemory})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	if b.History == nil || b.Events == nil {
		t.Fatal("expected history and events")
	}
}
