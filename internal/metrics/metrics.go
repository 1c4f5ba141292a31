package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for WardenXT. Every Record method is
// safe on a nil receiver so components may run without metrics.
type Metrics struct {
	// Runbook generation
	Generations        *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	RunbookSteps       prometheus.Histogram

	// Provider calls
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	ProviderTokens  *prometheus.CounterVec

	// Safety
	Classifications   *prometheus.CounterVec
	Validations       *prometheus.CounterVec
	DangerousCommands *prometheus.CounterVec

	// Execution
	Executions         *prometheus.CounterVec
	BlockedExecutions  *prometheus.CounterVec
	ApprovalRejections prometheus.Counter

	// Runbook cache
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	CachedRunbooks prometheus.Gauge

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Errors by structured error code
	Errors *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_runbook_generations_total",
				Help: "Total number of runbook generations",
			},
			[]string{"focus_area", "success"},
		),
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardenxt_runbook_generation_duration_seconds",
				Help:    "Runbook generation duration in seconds, provider call included",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"focus_area"},
		),
		RunbookSteps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wardenxt_runbook_steps",
				Help:    "Number of steps in generated runbooks",
				Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20},
			},
		),

		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_provider_calls_total",
				Help: "Total number of text-generation provider calls",
			},
			[]string{"provider", "model", "success"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardenxt_provider_latency_seconds",
				Help:    "Text-generation provider latency in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"provider", "model"},
		),
		ProviderTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_provider_tokens_total",
				Help: "Tokens consumed by provider calls",
			},
			[]string{"provider", "model", "token_type"},
		),

		Classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_classifications_total",
				Help: "Commands classified, by resulting tier and verdict",
			},
			[]string{"risk_level", "allowed"},
		),
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_runbook_validations_total",
				Help: "Runbook validations by outcome",
			},
			[]string{"valid"},
		),
		DangerousCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_dangerous_commands_total",
				Help: "Blocked commands found while validating runbooks, by rule",
			},
			[]string{"rule"},
		),

		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_executions_total",
				Help: "Command executions by tier, requested mode and outcome",
			},
			[]string{"risk_level", "requested_mode", "success"},
		),
		BlockedExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_blocked_executions_total",
				Help: "Execution attempts stopped by the blocklist, by rule",
			},
			[]string{"rule"},
		),
		ApprovalRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wardenxt_approval_rejections_total",
				Help: "High-risk live requests rejected for a missing or wrong confirmation token",
			},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_runbook_cache_hits_total",
				Help: "Runbook cache lookups that found a live entry",
			},
			[]string{"operation"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_runbook_cache_misses_total",
				Help: "Runbook cache lookups that found nothing",
			},
			[]string{"operation"},
		),
		CacheEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_runbook_cache_evictions_total",
				Help: "Runbooks removed from the cache",
			},
			[]string{"reason"},
		),
		CachedRunbooks: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wardenxt_cached_runbooks",
				Help: "Live runbooks in the cache at the last listing",
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardenxt_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardenxt_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// RecordGeneration counts one generation attempt.
func (m *Metrics) RecordGeneration(focus string, success bool, d time.Duration, steps int) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(focus, strconv.FormatBool(success)).Inc()
	m.GenerationDuration.WithLabelValues(focus).Observe(d.Seconds())
	if success {
		m.RunbookSteps.Observe(float64(steps))
	}
}

// RecordProviderCall counts one provider call and its token usage.
func (m *Metrics) RecordProviderCall(provider, model string, success bool, d time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(provider, model, strconv.FormatBool(success)).Inc()
	m.ProviderLatency.WithLabelValues(provider, model).Observe(d.Seconds())
	if inputTokens > 0 {
		m.ProviderTokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.ProviderTokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

// RecordClassification counts one classifier verdict.
func (m *Metrics) RecordClassification(tier string, allowed bool) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(tier, strconv.FormatBool(allowed)).Inc()
}

// RecordValidation counts one validation and the rules it tripped.
func (m *Metrics) RecordValidation(valid bool, rules []string) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(strconv.FormatBool(valid)).Inc()
	for _, r := range rules {
		m.DangerousCommands.WithLabelValues(r).Inc()
	}
}

// RecordExecution counts one execution result. A non-empty blockedRule
// also counts a blocked attempt.
func (m *Metrics) RecordExecution(tier string, dryRunRequested, success bool, blockedRule string) {
	if m == nil {
		return
	}
	mode := "live"
	if dryRunRequested {
		mode = "dry_run"
	}
	m.Executions.WithLabelValues(tier, mode, strconv.FormatBool(success)).Inc()
	if blockedRule != "" {
		m.BlockedExecutions.WithLabelValues(blockedRule).Inc()
	}
}

// RecordApprovalRejection counts a confirmation-gate rejection.
func (m *Metrics) RecordApprovalRejection() {
	if m == nil {
		return
	}
	m.ApprovalRejections.Inc()
}

// RecordCacheLookup counts a hit or miss for operation.
func (m *Metrics) RecordCacheLookup(operation string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(operation).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(operation).Inc()
}

// RecordEviction counts a removed runbook; reason is "expired" or
// "invalidated".
func (m *Metrics) RecordEviction(reason string) {
	if m == nil {
		return
	}
	m.CacheEvictions.WithLabelValues(reason).Inc()
}

// SetCachedRunbooks records the live cache size.
func (m *Metrics) SetCachedRunbooks(n int) {
	if m == nil {
		return
	}
	m.CachedRunbooks.Set(float64(n))
}

// RecordHTTPRequest counts one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordError counts a coded error raised by component.
func (m *Metrics) RecordError(code, component string) {
	if m == nil || code == "" {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
