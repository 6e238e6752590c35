// Package flowrelay provides the status-and-event coordination layer between
// a request-serving (consumer) process and a worker process executing a
// long-running workflow run. The two processes never share memory or hold a
// direct connection: they communicate exclusively through five token-scoped
// keys in a shared key-value store acting as mailbox, queue, and liveness
// signal.
//
// Flowrelay is designed as a library, not a service. Import it, configure a
// store, and drive runs from both sides:
//
//	st := redisstore.New(client)
//	c := relay.New(st, relay.WithTaskQueue(q), relay.WithMessageStore(msgs))
//	for evt := range c.Drain(ctx, rn) {
//	    // forward evt to the client
//	}
//
// # Architecture
//
// Flowrelay follows a composable store pattern where each subsystem (run
// status, event channel, input mailbox) defines its own store interface.
// A single backend implements all of them; Redis and an in-memory TTL-aware
// store are provided.
//
// The consumer side owns the input and stop keys; the worker side owns the
// status, event, and data keys. Each key has exactly one writer role, so no
// locking is needed and reads are eventually-consistent snapshots.
//
// All run and flow IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package flowrelay
