package telemetry

// Config holds tracer settings.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, production).
	Environment string

	// Enabled selects a real tracer provider; otherwise spans are no-ops.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector host:port. Empty keeps spans
	// in process.
	Endpoint string

	// SampleRate is the fraction of traces sampled, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns tracing disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "wardenxt",
		ServiceVersion: "dev",
		Environment:    "development",
		SampleRate:     1.0,
	}
}
