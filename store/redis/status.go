package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/beclab/flowrelay"
	"github.com/beclab/flowrelay/id"
	"github.com/beclab/flowrelay/run"
)

// SetStatus records the run status with the current time. A terminal status
// proactively deletes the data and input keys; the status record and the
// event queue stay for the final drain.
func (s *Store) SetStatus(ctx context.Context, token id.RunID, status run.Status, reason string) error {
	rec := run.Record{Status: status, Reason: reason, ObservedAt: time.Now().UTC()}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("flowrelay/redis: marshal status: %w", err)
	}

	tok := token.String()
	if err := s.client.Set(ctx, statusKey(tok), raw, s.cfg.StatusRetention).Err(); err != nil {
		return fmt.Errorf("flowrelay/redis: set status: %w", err)
	}
	if status.Terminal() {
		if err := s.client.Del(ctx, dataKey(tok), inputKey(tok)).Err(); err != nil {
			return fmt.Errorf("flowrelay/redis: terminal cleanup: %w", err)
		}
	}
	return nil
}

// GetStatus returns the last-known status record.
func (s *Store) GetStatus(ctx context.Context, token id.RunID) (*run.Record, error) {
	raw, err := s.client.Get(ctx, statusKey(token.String())).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, flowrelay.ErrStatusNotFound
		}
		return nil, fmt.Errorf("flowrelay/redis: get status: %w", err)
	}

	var rec run.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("flowrelay/redis: decode status: %w", err)
	}
	return &rec, nil
}

// SetData stores the run's data snapshot.
func (s *Store) SetData(ctx context.Context, token id.RunID, data []byte) error {
	err := s.client.Set(ctx, dataKey(token.String()), data, s.cfg.RunTTL).Err()
	if err != nil {
		return fmt.Errorf("flowrelay/redis: set data: %w", err)
	}
	return nil
}

// GetData returns the run's data snapshot, or nil if absent.
func (s *Store) GetData(ctx context.Context, token id.RunID) ([]byte, error) {
	raw, err := s.client.Get(ctx, dataKey(token.String())).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil // no snapshot is not an error
		}
		return nil, fmt.Errorf("flowrelay/redis: get data: %w", err)
	}
	return raw, nil
}

// RequestStop raises the cooperative stop flag.
func (s *Store) RequestStop(ctx context.Context, token id.RunID) error {
	err := s.client.Set(ctx, stopKey(token.String()), "1", s.cfg.StopRetention).Err()
	if err != nil {
		return fmt.Errorf("flowrelay/redis: request stop: %w", err)
	}
	return nil
}

// Stopped reports whether a stop has been requested. The flag is read from
// Redis on every call so a stop is observed promptly; no local caching.
func (s *Store) Stopped(ctx context.Context, token id.RunID) (bool, error) {
	val, err := s.client.Get(ctx, stopKey(token.String())).Result()
	if err != nil {
		if err == goredis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("flowrelay/redis: get stop: %w", err)
	}
	return val == "1", nil
}

// Clear deletes every key of the run's keyspace immediately.
func (s *Store) Clear(ctx context.Context, token id.RunID) error {
	tok := token.String()
	err := s.client.Del(ctx,
		dataKey(tok), statusKey(tok), eventKey(tok), inputKey(tok), stopKey(tok),
	).Err()
	if err != nil {
		return fmt.Errorf("flowrelay/redis: clear run: %w", err)
	}
	return nil
}
