package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/beclab/flowrelay/id"
	"github.com/beclab/flowrelay/mailbox"
)

// Deposit places the payload in the run's mailbox, overwriting any previous
// deposit and refreshing the TTL.
func (s *Store) Deposit(ctx context.Context, token id.RunID, payload mailbox.Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("flowrelay/redis: marshal input: %w", err)
	}
	if err := s.client.Set(ctx, inputKey(token.String()), raw, s.cfg.RunTTL).Err(); err != nil {
		return fmt.Errorf("flowrelay/redis: deposit input: %w", err)
	}
	return nil
}

// Withdraw removes and returns the deposited payload (GETDEL), or
// (nil, nil) when the mailbox is empty.
func (s *Store) Withdraw(ctx context.Context, token id.RunID) (mailbox.Payload, error) {
	raw, err := s.client.GetDel(ctx, inputKey(token.String())).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("flowrelay/redis: withdraw input: %w", err)
	}

	var payload mailbox.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("flowrelay/redis: decode input: %w", err)
	}
	return payload, nil
}
