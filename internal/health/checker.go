// Package health runs dependency checks and answers Kubernetes-style
// liveness, readiness and startup probes.
//
//	pm := health.NewProbeManager(version.Version)
//	pm.AddChecker(health.NewProviderChecker(client))
//	pm.AddChecker(health.NewSourceChecker(incidents))
//	result := pm.CheckReadiness(ctx)
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency. Check must honour the context deadline.
type Checker interface {
	// Name is a short lowercase identifier such as "provider".
	Name() string
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	StatusHealthy Status = "healthy"
	// StatusDegraded means the service works with reduced functionality.
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// Result is what a Checker reports.
type Result struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency_ns"`
}

// NewResult creates a result with an empty details map.
func NewResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: map[string]interface{}{}}
}

// WithDetail sets a detail and returns r.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	if r.Details == nil {
		r.Details = map[string]interface{}{}
	}
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns r.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

func Healthy(message string) *Result   { return NewResult(StatusHealthy, message) }
func Degraded(message string) *Result  { return NewResult(StatusDegraded, message) }
func Unhealthy(message string) *Result { return NewResult(StatusUnhealthy, message) }
