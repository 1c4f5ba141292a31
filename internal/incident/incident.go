// Package incident loads the incident context a runbook is generated from.
package incident

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

const (
	// RecentLogs is how many trailing log lines feed a generation prompt.
	RecentLogs = 50
	// RecentMetrics is how many trailing metric samples feed a prompt.
	RecentMetrics = 10
)

// Severity levels, P0 being a complete outage.
const (
	SeverityP0 = "P0"
	SeverityP1 = "P1"
	SeverityP2 = "P2"
	SeverityP3 = "P3"
)

// RootCause is the known or suspected cause of an incident.
type RootCause struct {
	Primary             string   `json:"primary"`
	Secondary           string   `json:"secondary,omitempty"`
	ContributingFactors []string `json:"contributing_factors,omitempty"`
}

// Summary is the incident metadata.
type Summary struct {
	IncidentID       string    `json:"incident_id"`
	Title            string    `json:"title"`
	Severity         string    `json:"severity"`
	IncidentType     string    `json:"incident_type"`
	StartTime        string    `json:"start_time,omitempty"`
	DurationMinutes  int       `json:"duration_minutes"`
	ServicesAffected []string  `json:"services_affected"`
	RootCause        RootCause `json:"root_cause"`
	EstimatedCost    string    `json:"estimated_cost,omitempty"`
	UsersImpacted    string    `json:"users_impacted,omitempty"`
}

// LogEntry is one structured log line.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service"`
	Host      string `json:"host"`
	Message   string `json:"message"`
}

// MetricPoint is one metrics sample.
type MetricPoint struct {
	Timestamp string             `json:"timestamp"`
	Service   string             `json:"service"`
	Host      string             `json:"host"`
	Metrics   map[string]float64 `json:"metrics"`
}

// TimelineEvent is one entry in the incident timeline.
type TimelineEvent struct {
	Time   string `json:"time"`
	Event  string `json:"event"`
	Impact string `json:"impact"`
	Type   string `json:"type"`
}

// Incident bundles everything known about one incident.
type Incident struct {
	Summary  Summary         `json:"summary"`
	Logs     []LogEntry      `json:"logs"`
	Metrics  []MetricPoint   `json:"metrics"`
	Timeline []TimelineEvent `json:"timeline"`
}

// RecentLogs returns at most n trailing log entries.
func (i *Incident) RecentLogs(n int) []LogEntry {
	if len(i.Logs) <= n {
		return i.Logs
	}
	return i.Logs[len(i.Logs)-n:]
}

// RecentMetrics returns at most n trailing metric samples.
func (i *Incident) RecentMetrics(n int) []MetricPoint {
	if len(i.Metrics) <= n {
		return i.Metrics
	}
	return i.Metrics[len(i.Metrics)-n:]
}

// Source provides incident context.
type Source interface {
	// Load returns the incident or an INCIDENT-001 error.
	Load(ctx context.Context, id string) (*Incident, error)
	// List returns every known incident id in sorted order.
	List(ctx context.Context) ([]string, error)
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateID rejects ids that are empty or could escape a data directory.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return errors.NewInvalidRequestError("incident id must be alphanumeric with '.', '_' or '-'")
	}
	return nil
}

// normalizeSeverity maps unknown severities to P2.
func normalizeSeverity(s string) string {
	switch s {
	case SeverityP0, SeverityP1, SeverityP2, SeverityP3:
		return s
	}
	return SeverityP2
}

// MemorySource serves incidents held in memory.
type MemorySource struct {
	mu        sync.RWMutex
	incidents map[string]*Incident
}

// NewMemorySource creates a source preloaded with incidents.
func NewMemorySource(incidents ...*Incident) *MemorySource {
	m := &MemorySource{incidents: make(map[string]*Incident)}
	for _, inc := range incidents {
		m.Add(inc)
	}
	return m
}

// Add stores or replaces an incident.
func (m *MemorySource) Add(inc *Incident) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc.Summary.Severity = normalizeSeverity(inc.Summary.Severity)
	m.incidents[inc.Summary.IncidentID] = inc
}

// Load implements Source.
func (m *MemorySource) Load(ctx context.Context, id string) (*Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inc, ok := m.incidents[id]
	if !ok {
		return nil, errors.NewIncidentNotFoundError(id)
	}
	return inc, nil
}

// List implements Source.
func (m *MemorySource) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.incidents))
	for id := range m.incidents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
