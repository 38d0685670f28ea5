package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend kinds accepted by OpenBackend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// BackendOptions selects and configures the persistence backend.
type BackendOptions struct {
	Kind       string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Backend bundles what the application needs from persistence regardless of
// where the data lives.
type Backend struct {
	History *History
	Events  EventRepo
	closeFn func() error
}

// Close releases the backend's connections.
func (b *Backend) Close() error {
	if b.closeFn == nil {
		return nil
	}
	return b.closeFn()
}

// OpenBackend opens the backend described by opts. Non-SQLite backends keep
// LLM events in memory only.
func OpenBackend(ctx context.Context, opts BackendOptions) (*Backend, error) {
	switch opts.Kind {
	case "", BackendSQLite:
		st, err := Open(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{History: st.History(), Events: st.EventRepo(), closeFn: st.Close}, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", opts.RedisAddr, err)
		}
		return &Backend{
			History: NewHistory(NewRedisKV(client, opts.RedisPrefix)),
			Events:  NewMemoryEventRepo(),
			closeFn: client.Close,
		}, nil

	case BackendMemory:
		return &Backend{History: NewHistory(NewMemoryKV()), Events: NewMemoryEventRepo()}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Kind)
	}
}
