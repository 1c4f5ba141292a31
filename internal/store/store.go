// Package store keeps generated runbooks and their execution history per
// incident.
package store

import (
	"context"
	"time"

	"github.com/abhishekK50/wardenxt/internal/runbook"
)

// TTL is the fixed lifetime of a cached runbook, measured from its
// generation time.
const TTL = 60 * time.Minute

// Store defines runbook persistence.
//
// There is one slot per incident. Reads treat entries older than TTL as
// absent and delete them. Implementations must be safe for concurrent use,
// but operations on the same incident are last-write-wins.
type Store interface {
	// Put stores rb under its incident id, replacing any existing runbook.
	// Execution history is kept.
	Put(ctx context.Context, rb *runbook.Runbook) error

	// Get returns the live runbook for an incident.
	// Returns a RUNBOOK-001 error if absent or expired.
	Get(ctx context.Context, incidentID string) (*runbook.Runbook, error)

	// Delete removes the runbook and its history together.
	// Reports whether a live runbook existed.
	Delete(ctx context.Context, incidentID string) (bool, error)

	// List returns every live entry ordered by incident id.
	List(ctx context.Context) ([]Entry, error)

	// AppendResult adds an execution result to the incident's history.
	AppendResult(ctx context.Context, incidentID string, result runbook.ExecutionResult) error

	// History returns the incident's execution results in append order.
	History(ctx context.Context, incidentID string) ([]runbook.ExecutionResult, error)
}

// Entry describes one live cached runbook.
type Entry struct {
	Runbook *runbook.Runbook
	Age     time.Duration
}

// Clock returns the current time.
type Clock func() time.Time
