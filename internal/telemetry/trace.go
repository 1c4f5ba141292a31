package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartOperationSpan opens a span for one runbook API operation such as
// "generate" or "execute".
//
//	ctx, span := telemetry.StartOperationSpan(ctx, "generate", incidentID)
//	defer span.End()
func StartOperationSpan(ctx context.Context, operation, incidentID string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("runbooks").Start(ctx, "runbook."+operation)
	span.SetAttributes(
		attribute.String("operation", operation),
		attribute.String("incident_id", incidentID),
		attribute.String("component", "service"),
	)
	return ctx, span
}

// StartProviderSpan opens a span for a text-generation call.
func StartProviderSpan(ctx context.Context, providerName, model string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("providers").Start(ctx, "provider.generate",
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("provider", providerName),
		attribute.String("model", model),
		attribute.String("component", "provider"),
	)
	return ctx, span
}

// StartCommandSpan opens a span for a CLI command.
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	ctx, span := GetTracerProvider().Tracer("commands").Start(ctx, "command."+cmdName)
	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// RecordSuccess sets an Ok status with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError marks the span failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}
