// Package taskqueue carries the dispatch and terminate commands that start
// and abort worker-side executions. The coordination layer only produces
// commands; a worker host consumes them and launches or stops executors.
package taskqueue

import (
	"context"

	"github.com/beclab/flowrelay/id"
)

// Op discriminates a command.
type Op string

const (
	// OpExecute asks the worker host to start executing a run.
	OpExecute Op = "execute"
	// OpStop asks the worker host to terminate a run's execution.
	OpStop Op = "stop"
)

// Request identifies the run a command applies to.
type Request struct {
	Token  id.RunID `json:"token"`
	FlowID string   `json:"flow_id"`
	ChatID string   `json:"chat_id,omitempty"`
	UserID string   `json:"user_id,omitempty"`
}

// Command is one queued instruction for the worker host.
type Command struct {
	Op      Op      `json:"op"`
	Request Request `json:"request"`
}

// Queue is the producer-side contract consumed by the coordinator.
type Queue interface {
	// Dispatch asks the worker host to start a run.
	Dispatch(ctx context.Context, req Request) error

	// RequestTermination asks the worker host to abort a run. Cooperative:
	// there is no guarantee of immediate cessation.
	RequestTermination(ctx context.Context, req Request) error
}
