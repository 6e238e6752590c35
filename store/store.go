// Package store defines the composite store interface implemented by
// storage backends. Each subsystem (run status, event channel, input
// mailbox) defines its own store interface in its package; a single backend
// implements all of them.
package store

import (
	"context"

	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
)

// Store is the composite interface over the shared per-run keyspace.
type Store interface {
	run.Store
	event.Store
	mailbox.Store

	// Ping verifies the backend connection is alive.
	Ping(ctx context.Context) error

	// Close releases backend resources owned by the store.
	Close(ctx context.Context) error
}
