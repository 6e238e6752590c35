package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// commandsKey is the List carrying commands to the worker host.
const commandsKey = "flowrelay:tasks"

// Compile-time interface check.
var _ Queue = (*RedisQueue)(nil)

// RedisQueue is a Redis-List-backed command queue. Producers RPUSH JSON
// commands; the worker host consumes them with blocking pops.
type RedisQueue struct {
	client goredis.Cmdable
}

// NewRedisQueue creates a queue on the given Redis client. The caller owns
// the client lifecycle.
func NewRedisQueue(client goredis.Cmdable) *RedisQueue {
	return &RedisQueue{client: client}
}

// Dispatch asks the worker host to start a run.
func (q *RedisQueue) Dispatch(ctx context.Context, req Request) error {
	return q.push(ctx, Command{Op: OpExecute, Request: req})
}

// RequestTermination asks the worker host to abort a run.
func (q *RedisQueue) RequestTermination(ctx context.Context, req Request) error {
	return q.push(ctx, Command{Op: OpStop, Request: req})
}

func (q *RedisQueue) push(ctx context.Context, cmd Command) error {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("flowrelay/taskqueue: marshal command: %w", err)
	}
	if err := q.client.RPush(ctx, commandsKey, raw).Err(); err != nil {
		return fmt.Errorf("flowrelay/taskqueue: push command: %w", err)
	}
	return nil
}

// Pop blocks up to timeout for the next command. Returns (nil, nil) on
// timeout. Intended for the worker host's consume loop.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Command, error) {
	res, err := q.client.BLPop(ctx, timeout, commandsKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("flowrelay/taskqueue: pop command: %w", err)
	}
	// BLPOP returns [key, value].
	if len(res) < 2 {
		return nil, nil
	}

	var cmd Command
	if err := json.Unmarshal([]byte(res[1]), &cmd); err != nil {
		return nil, fmt.Errorf("flowrelay/taskqueue: decode command: %w", err)
	}
	return &cmd, nil
}
