package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/id"
)

// PushEvent appends an event to the run's queue (RPUSH), refreshing the
// queue TTL.
func (s *Store) PushEvent(ctx context.Context, token id.RunID, evt *event.Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("flowrelay/redis: marshal event: %w", err)
	}

	key := eventKey(token.String())
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.Expire(ctx, key, s.cfg.RunTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flowrelay/redis: push event: %w", err)
	}
	return nil
}

// PopEvent removes and returns the oldest queued event (LPOP), or (nil, nil)
// when the queue is empty. When a stop has been requested the remaining
// queue is dropped and the pop reports empty, so a burst the worker emitted
// before noticing the stop is never replayed to the consumer.
func (s *Store) PopEvent(ctx context.Context, token id.RunID) (*event.Event, error) {
	raw, err := s.client.LPop(ctx, eventKey(token.String())).Bytes()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("flowrelay/redis: pop event: %w", err)
	}

	stopped, stopErr := s.Stopped(ctx, token)
	if stopErr != nil {
		return nil, stopErr
	}
	if stopped {
		if delErr := s.client.Del(ctx, eventKey(token.String())).Err(); delErr != nil {
			return nil, fmt.Errorf("flowrelay/redis: drop stopped queue: %w", delErr)
		}
		return nil, nil
	}
	if err == goredis.Nil {
		return nil, nil
	}

	var evt event.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, fmt.Errorf("flowrelay/redis: decode event: %w", err)
	}
	return &evt, nil
}

// ClearEvents deletes the run's event queue.
func (s *Store) ClearEvents(ctx context.Context, token id.RunID) error {
	if err := s.client.Del(ctx, eventKey(token.String())).Err(); err != nil {
		return fmt.Errorf("flowrelay/redis: clear events: %w", err)
	}
	return nil
}
