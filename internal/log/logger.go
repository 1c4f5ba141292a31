package log

import (
	"context"
	stderrors "errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	if config.Format == FormatText {
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	}

	l := slog.New(handler)
	if config.ServiceName != "" {
		l = l.With("service", config.ServiceName, "version", config.ServiceVersion)
	}

	return &Logger{
		slog:   l,
		config: config,
	}
}

// Slog returns the underlying *slog.Logger for libraries that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// Development creates a logger with development configuration
func Development() *Logger {
	return New(DevelopmentConfig())
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithGroup returns a new Logger with a group name that prefixes all attributes
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slog:   l.slog.WithGroup(name),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// Coded errors contribute error_code, error_kind and suggestions.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	if wErr := asWardenError(err); wErr != nil {
		args := []any{
			"error", wErr.Message,
			"error_code", string(wErr.Code),
			"error_kind", string(errors.KindOf(wErr)),
		}

		if len(wErr.Suggestions) > 0 {
			args = append(args, "suggestions", wErr.Suggestions)
		}

		if wErr.Cause != nil {
			args = append(args, "cause", wErr.Cause.Error())
		}

		return l.With(args...)
	}

	return l.With("error", err.Error())
}

// WithContext returns a new Logger carrying the trace and span ids of the
// span active in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}

func asWardenError(err error) *errors.WardenError {
	var wErr *errors.WardenError
	if stderrors.As(err, &wErr) {
		return wErr
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// DebugContext logs a debug message with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// InfoContext logs an info message with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// WarnContext logs a warning message with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// ErrorContext logs an error message with context
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// LogError logs an error with full details
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	l.Error("operation failed", errorArgs(err)...)
}

// LogErrorContext logs an error with full details and the trace ids in ctx
func (l *Logger) LogErrorContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	l.WithContext(ctx).ErrorContext(ctx, "operation failed", errorArgs(err)...)
}

func errorArgs(err error) []any {
	wErr := asWardenError(err)
	if wErr == nil {
		return []any{"error", err.Error()}
	}

	args := []any{
		"error_code", string(wErr.Code),
		"error_kind", string(errors.KindOf(wErr)),
		"error_message", wErr.Message,
	}
	if len(wErr.Suggestions) > 0 {
		args = append(args, "suggestions", wErr.Suggestions)
	}
	if wErr.DocsURL != "" {
		args = append(args, "docs_url", wErr.DocsURL)
	}
	if wErr.Cause != nil {
		args = append(args, "cause", wErr.Cause.Error())
	}
	return args
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Handler returns the underlying slog.Handler
func (l *Logger) Handler() slog.Handler {
	return l.slog.Handler()
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
