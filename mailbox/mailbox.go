// Package mailbox defines the single-slot resumption mailbox: the consumer
// deposits a payload, the worker withdraws it exactly once to resume a
// paused run.
package mailbox

import (
	"context"

	"github.com/beclab/flowrelay/id"
)

// Payload is the resumption payload, keyed by the node identifier that
// raised the pending input request. The inner mapping is interpreted by the
// worker; the coordination layer treats it as opaque except during chat
// message patching.
type Payload map[string]map[string]any

// Node returns the payload slice addressed to one node, or nil.
func (p Payload) Node(nodeID string) map[string]any {
	if p == nil {
		return nil
	}
	return p[nodeID]
}

// Store is the mailbox contract implemented by storage backends.
type Store interface {
	// Deposit places the payload in the run's mailbox, overwriting any
	// previous deposit and refreshing the TTL.
	Deposit(ctx context.Context, token id.RunID, payload Payload) error

	// Withdraw removes and returns the deposited payload, or (nil, nil) when
	// the mailbox is empty. A payload is consumed at most once.
	Withdraw(ctx context.Context, token id.RunID) (Payload, error)
}
