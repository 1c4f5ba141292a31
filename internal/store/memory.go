package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/runbook"
)

// MemoryStore implements Store in process memory.
//
// The mutex only keeps map access memory-safe; it gives no atomicity across
// calls. Runbooks are cloned on the way in and out.
type MemoryStore struct {
	mu       sync.RWMutex
	runbooks map[string]*runbook.Runbook
	history  map[string][]runbook.ExecutionResult
	now      Clock
	onEvict  func(incidentID string)
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(m *MemoryStore) { m.now = c }
}

// WithEvictionHook registers fn to be called whenever an expired entry is
// removed.
func WithEvictionHook(fn func(incidentID string)) Option {
	return func(m *MemoryStore) { m.onEvict = fn }
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		runbooks: make(map[string]*runbook.Runbook),
		history:  make(map[string][]runbook.ExecutionResult),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put stores a runbook.
func (m *MemoryStore) Put(ctx context.Context, rb *runbook.Runbook) error {
	if rb == nil {
		return errors.NewInvalidRequestError("runbook cannot be nil")
	}
	if rb.IncidentID == "" {
		return errors.NewInvalidRequestError("runbook incident id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.runbooks[rb.IncidentID] = rb.Clone()
	return nil
}

// Get retrieves a live runbook, deleting it if expired.
func (m *MemoryStore) Get(ctx context.Context, incidentID string) (*runbook.Runbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rb, ok := m.liveLocked(incidentID)
	if !ok {
		return nil, errors.NewRunbookNotFoundError(incidentID)
	}
	return rb.Clone(), nil
}

// Delete removes a runbook and its history.
func (m *MemoryStore) Delete(ctx context.Context, incidentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.liveLocked(incidentID)
	delete(m.runbooks, incidentID)
	delete(m.history, incidentID)
	return ok, nil
}

// List returns the live entries sorted by incident id. Expired entries are
// removed as a side effect.
func (m *MemoryStore) List(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.runbooks))
	for id := range m.runbooks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := m.now()
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		rb, ok := m.liveLocked(id)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Runbook: rb.Clone(), Age: now.Sub(rb.GeneratedAt)})
	}
	return entries, nil
}

// AppendResult appends to the incident's history.
func (m *MemoryStore) AppendResult(ctx context.Context, incidentID string, result runbook.ExecutionResult) error {
	if incidentID == "" {
		return errors.NewInvalidRequestError("incident id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[incidentID] = append(m.history[incidentID], result)
	return nil
}

// History returns a copy of the incident's history. An incident without
// executions has an empty history.
func (m *MemoryStore) History(ctx context.Context, incidentID string) ([]runbook.ExecutionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runbooks[incidentID]; ok {
		m.liveLocked(incidentID)
	}
	return append([]runbook.ExecutionResult{}, m.history[incidentID]...), nil
}

// Count returns the number of stored runbooks, expired or not.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runbooks)
}

// liveLocked returns the runbook if present and unexpired. An expired entry
// and its history are deleted.
func (m *MemoryStore) liveLocked(incidentID string) (*runbook.Runbook, bool) {
	rb, ok := m.runbooks[incidentID]
	if !ok {
		return nil, false
	}
	if m.now().Sub(rb.GeneratedAt) <= TTL {
		return rb, true
	}

	delete(m.runbooks, incidentID)
	delete(m.history, incidentID)
	if m.onEvict != nil {
		m.onEvict(incidentID)
	}
	return nil, false
}

var _ Store = (*MemoryStore)(nil)
