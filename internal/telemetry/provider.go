package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// installed is the process tracer provider and its shutdown hook.
var installed struct {
	sync.RWMutex
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

func noShutdown(context.Context) error { return nil }

// InitProvider installs the process tracer provider and returns its
// shutdown function. Disabled tracing installs a no-op provider.
func InitProvider(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	var (
		tp       trace.TracerProvider = noop.NewTracerProvider()
		shutdown                      = noShutdown
	)

	if cfg.Enabled {
		sdk, err := newSDKProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		tp, shutdown = sdk, sdk.Shutdown
	}

	installed.Lock()
	installed.provider, installed.shutdown = tp, shutdown
	installed.Unlock()

	otel.SetTracerProvider(tp)
	return shutdown, nil
}

func newSDKProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
		resource.WithProcessRuntimeDescription(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	}

	// Without an endpoint spans stay in process, which still gives request
	// handlers a valid trace id for log correlation.
	if cfg.Endpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// samplerFor samples everything at rate 1 or above and otherwise follows the
// parent, sampling root spans by trace id ratio.
func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1.0 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// SetTracerProvider replaces the provider used by the span helpers.
// Tests use it to install an in-memory exporter.
func SetTracerProvider(tp trace.TracerProvider) {
	installed.Lock()
	defer installed.Unlock()
	installed.provider, installed.shutdown = tp, nil
}

// Shutdown flushes and stops the installed provider.
func Shutdown(ctx context.Context) error {
	installed.RLock()
	shutdown := installed.shutdown
	installed.RUnlock()

	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

// GetTracerProvider returns the installed provider, or a no-op one.
func GetTracerProvider() trace.TracerProvider {
	installed.RLock()
	defer installed.RUnlock()

	if installed.provider == nil {
		return noop.NewTracerProvider()
	}
	return installed.provider
}
