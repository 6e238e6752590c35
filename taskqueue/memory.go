package taskqueue

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Queue = (*MemoryQueue)(nil)

// MemoryQueue is an in-memory Queue for unit testing and development.
type MemoryQueue struct {
	mu       sync.Mutex
	commands []Command
}

// NewMemoryQueue returns a new empty MemoryQueue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Dispatch records an execute command.
func (q *MemoryQueue) Dispatch(_ context.Context, req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.commands = append(q.commands, Command{Op: OpExecute, Request: req})
	return nil
}

// RequestTermination records a stop command.
func (q *MemoryQueue) RequestTermination(_ context.Context, req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.commands = append(q.commands, Command{Op: OpStop, Request: req})
	return nil
}

// Commands returns a snapshot of the recorded commands.
func (q *MemoryQueue) Commands() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Command, len(q.commands))
	copy(out, q.commands)
	return out
}
