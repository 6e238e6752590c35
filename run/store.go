package run

import (
	"context"

	"github.com/beclab/flowrelay/id"
)

// Store is the status-register and run-keyspace contract implemented by
// storage backends.
//
// Ownership discipline: the worker side writes status and data, the consumer
// side writes the stop flag; both sides may read everything. Each key is
// scoped to exactly one run token.
type Store interface {
	// SetStatus records status with the current time. Writing a terminal
	// status additionally deletes the run's data and input keys — the event
	// queue and the status record itself stay for the final drain.
	SetStatus(ctx context.Context, token id.RunID, status Status, reason string) error

	// GetStatus returns the last-known status record, or
	// flowrelay.ErrStatusNotFound if the key is absent or expired.
	GetStatus(ctx context.Context, token id.RunID) (*Record, error)

	// SetData stores the run's data snapshot.
	SetData(ctx context.Context, token id.RunID, data []byte) error

	// GetData returns the run's data snapshot, or nil if absent.
	GetData(ctx context.Context, token id.RunID) ([]byte, error)

	// RequestStop raises the cooperative stop flag. Idempotent.
	RequestStop(ctx context.Context, token id.RunID) error

	// Stopped reports whether a stop has been requested for the run.
	Stopped(ctx context.Context, token id.RunID) (bool, error)

	// Clear deletes every key of the run's keyspace immediately. Used when a
	// consumer abandons a run; the token must not be reused while its status
	// key is alive.
	Clear(ctx context.Context, token id.RunID) error
}
