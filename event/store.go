package event

import (
	"context"

	"github.com/beclab/flowrelay/id"
)

// Store is the event channel contract implemented by storage backends: an
// ordered, single-consumer queue of outbound events per run token.
type Store interface {
	// PushEvent appends an event to the run's queue, preserving FIFO order.
	PushEvent(ctx context.Context, token id.RunID, evt *Event) error

	// PopEvent removes and returns the oldest queued event, or (nil, nil)
	// when the queue is empty. If a stop has been requested for the run, the
	// remaining queue is cleared and PopEvent reports empty regardless of
	// unread content, so a stopped run never replays further output.
	PopEvent(ctx context.Context, token id.RunID) (*Event, error)

	// ClearEvents deletes the run's queue.
	ClearEvents(ctx context.Context, token id.RunID) error
}
