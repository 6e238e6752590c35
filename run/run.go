// Package run defines the run descriptor, the status register record, and
// the store contract for the per-run keyspace (status, data snapshot, stop
// flag).
package run

import (
	"time"

	"github.com/beclab/flowrelay/id"
)

// Status is the last-known lifecycle state of a workflow run as reported by
// the worker. The wire values match the legacy system so that mixed-version
// deployments can share a keyspace.
type Status string

const (
	// StatusWaiting means the run was dispatched but the worker has not yet
	// confirmed it is executing.
	StatusWaiting Status = "WAITING"
	// StatusInputOver means the run is executing normally (post-input,
	// pre-completion). The legacy wire value is kept for compatibility.
	StatusInputOver Status = "INPUT_OVER"
	// StatusInput means the run is paused awaiting a resumption payload.
	StatusInput Status = "INPUT"
	// StatusSuccess is terminal: the run completed.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed is terminal: the run failed, Reason carries the worker's
	// failure description.
	StatusFailed Status = "FAILED"
)

// Terminal reports whether no further status writes follow this one.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Record is the status register entry for one run.
type Record struct {
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Age returns how long ago the record was written.
func (r *Record) Age() time.Duration {
	return time.Since(r.ObservedAt)
}

// Terminal reports whether the record carries a terminal status.
func (r *Record) Terminal() bool {
	return r.Status.Terminal()
}

// Run identifies one asynchronous workflow execution attempt. Token is the
// unique key of the run's keyspace; ChatID is empty for non-chat
// invocations.
type Run struct {
	Token  id.RunID  `json:"token"`
	FlowID id.FlowID `json:"flow_id"`
	ChatID string    `json:"chat_id,omitempty"`
	UserID string    `json:"user_id,omitempty"`
}
