package health

import (
	"context"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds every individual check.
const DefaultCheckTimeout = 5 * time.Second

// Manager runs registered checkers concurrently.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a Manager with DefaultCheckTimeout.
func NewManager() *Manager {
	return &Manager{timeout: DefaultCheckTimeout}
}

// WithTimeout changes the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a checker.
func (m *Manager) AddChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// RemoveChecker unregisters the checker with the given name.
func (m *Manager) RemoveChecker(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.checkers {
		if c.Name() == name {
			m.checkers = append(m.checkers[:i], m.checkers[i+1:]...)
			return true
		}
	}
	return false
}

// Check runs every checker in its own goroutine and returns results keyed by
// checker name. A checker that returns nil is reported unhealthy.
func (m *Manager) Check(ctx context.Context) map[string]*Result {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	timeout := m.timeout
	m.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]*Result, len(checkers))
	)
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			res := c.Check(checkCtx)
			if res == nil {
				res = Unhealthy("check returned no result")
			}
			if res.Latency == 0 {
				res.Latency = time.Since(start)
			}

			mu.Lock()
			results[c.Name()] = res
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// OverallStatus is the worst status among results; no results is healthy.
func (m *Manager) OverallStatus(results map[string]*Result) Status {
	overall := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// CheckNames lists registered checkers in registration order.
func (m *Manager) CheckNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.checkers))
	for _, c := range m.checkers {
		names = append(names, c.Name())
	}
	return names
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}
