// Package redis implements store.Store using Redis. The event channel is a
// List (RPUSH/LPOP), the status register, data snapshot, input mailbox, and
// stop flag are plain keys holding JSON, all bounded by TTLs — TTL expiry is
// the sole garbage-collection mechanism.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/beclab/flowrelay"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
)

// Compile-time interface checks.
var (
	_ run.Store     = (*Store)(nil)
	_ event.Store   = (*Store)(nil)
	_ mailbox.Store = (*Store)(nil)
)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithConfig sets the TTL policy. Only the RunTTL, StatusRetention, and
// StopRetention fields are read.
func WithConfig(cfg flowrelay.Config) Option {
	return func(s *Store) { s.cfg = cfg }
}

// Store implements the composite store.Store interface backed by Redis.
type Store struct {
	client redis.Cmdable
	cfg    flowrelay.Config
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client: client,
		cfg:    flowrelay.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() redis.Cmdable { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op — the caller owns the Redis client lifecycle.
func (s *Store) Close(_ context.Context) error { return nil }
