// Package memory is a fully in-memory implementation of store.Store with
// the same TTL semantics as the Redis backend. Safe for concurrent access.
// Intended for unit testing and development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/beclab/flowrelay"
	"github.com/beclab/flowrelay/event"
	"github.com/beclab/flowrelay/id"
	"github.com/beclab/flowrelay/mailbox"
	"github.com/beclab/flowrelay/run"
)

// Compile-time interface checks.
var (
	_ run.Store     = (*Store)(nil)
	_ event.Store   = (*Store)(nil)
	_ mailbox.Store = (*Store)(nil)
)

type statusEntry struct {
	rec       run.Record
	expiresAt time.Time
}

type dataEntry struct {
	val       []byte
	expiresAt time.Time
}

type inputEntry struct {
	payload   mailbox.Payload
	expiresAt time.Time
}

type queueEntry struct {
	events    []*event.Event
	expiresAt time.Time
}

// Store is a fully in-memory implementation of store.Store.
type Store struct {
	mu sync.Mutex

	cfg flowrelay.Config

	status map[string]statusEntry
	data   map[string]dataEntry
	inputs map[string]inputEntry
	queues map[string]queueEntry
	stops  map[string]time.Time // token -> stop flag expiry
}

// Option configures the Store.
type Option func(*Store)

// WithConfig sets the TTL policy.
func WithConfig(cfg flowrelay.Config) Option {
	return func(s *Store) { s.cfg = cfg }
}

// New returns a new empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		cfg:    flowrelay.DefaultConfig(),
		status: make(map[string]statusEntry),
		data:   make(map[string]dataEntry),
		inputs: make(map[string]inputEntry),
		queues: make(map[string]queueEntry),
		stops:  make(map[string]time.Time),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close(_ context.Context) error { return nil }

// ──────────────────────────────────────────────────
// Status register
// ──────────────────────────────────────────────────

// SetStatus records status with the current time. A terminal status deletes
// the data and input entries.
func (m *Store) SetStatus(_ context.Context, token id.RunID, status run.Status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	now := time.Now()
	m.status[tok] = statusEntry{
		rec:       run.Record{Status: status, Reason: reason, ObservedAt: now.UTC()},
		expiresAt: now.Add(m.cfg.StatusRetention),
	}
	if status.Terminal() {
		delete(m.data, tok)
		delete(m.inputs, tok)
	}
	return nil
}

// GetStatus returns the last-known status record.
func (m *Store) GetStatus(_ context.Context, token id.RunID) (*run.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	e, ok := m.status[tok]
	if !ok || time.Now().After(e.expiresAt) {
		delete(m.status, tok)
		return nil, flowrelay.ErrStatusNotFound
	}
	rec := e.rec
	return &rec, nil
}

// SetData stores the run's data snapshot.
func (m *Store) SetData(_ context.Context, token id.RunID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[token.String()] = dataEntry{val: cp, expiresAt: time.Now().Add(m.cfg.RunTTL)}
	return nil
}

// GetData returns the run's data snapshot, or nil if absent.
func (m *Store) GetData(_ context.Context, token id.RunID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	e, ok := m.data[tok]
	if !ok || time.Now().After(e.expiresAt) {
		delete(m.data, tok)
		return nil, nil
	}
	cp := make([]byte, len(e.val))
	copy(cp, e.val)
	return cp, nil
}

// RequestStop raises the cooperative stop flag.
func (m *Store) RequestStop(_ context.Context, token id.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stops[token.String()] = time.Now().Add(m.cfg.StopRetention)
	return nil
}

// Stopped reports whether a stop has been requested.
func (m *Store) Stopped(_ context.Context, token id.RunID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stoppedLocked(token.String()), nil
}

func (m *Store) stoppedLocked(tok string) bool {
	exp, ok := m.stops[tok]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(m.stops, tok)
		return false
	}
	return true
}

// Clear deletes every key of the run's keyspace immediately.
func (m *Store) Clear(_ context.Context, token id.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	delete(m.status, tok)
	delete(m.data, tok)
	delete(m.inputs, tok)
	delete(m.queues, tok)
	delete(m.stops, tok)
	return nil
}

// ──────────────────────────────────────────────────
// Event channel
// ──────────────────────────────────────────────────

// PushEvent appends an event to the run's queue, refreshing the queue TTL.
func (m *Store) PushEvent(_ context.Context, token id.RunID, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	q := m.queues[tok]
	if !q.expiresAt.IsZero() && time.Now().After(q.expiresAt) {
		q.events = nil
	}
	cp := *evt
	q.events = append(q.events, &cp)
	q.expiresAt = time.Now().Add(m.cfg.RunTTL)
	m.queues[tok] = q
	return nil
}

// PopEvent removes and returns the oldest queued event, honoring the stop
// flag the same way the Redis backend does.
func (m *Store) PopEvent(_ context.Context, token id.RunID) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	if m.stoppedLocked(tok) {
		delete(m.queues, tok)
		return nil, nil
	}

	q, ok := m.queues[tok]
	if !ok || time.Now().After(q.expiresAt) || len(q.events) == 0 {
		return nil, nil
	}
	evt := q.events[0]
	q.events = q.events[1:]
	m.queues[tok] = q
	return evt, nil
}

// ClearEvents deletes the run's event queue.
func (m *Store) ClearEvents(_ context.Context, token id.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.queues, token.String())
	return nil
}

// ──────────────────────────────────────────────────
// Input mailbox
// ──────────────────────────────────────────────────

// Deposit places the payload in the run's mailbox.
func (m *Store) Deposit(_ context.Context, token id.RunID, payload mailbox.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputs[token.String()] = inputEntry{
		payload:   payload,
		expiresAt: time.Now().Add(m.cfg.RunTTL),
	}
	return nil
}

// Withdraw removes and returns the deposited payload.
func (m *Store) Withdraw(_ context.Context, token id.RunID) (mailbox.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := token.String()
	e, ok := m.inputs[tok]
	if !ok || time.Now().After(e.expiresAt) {
		delete(m.inputs, tok)
		return nil, nil
	}
	delete(m.inputs, tok)
	return e.payload, nil
}
