package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLevelAndFormat(t *testing.T) {
	tests := []struct {
		in        string
		wantLevel Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.wantLevel {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.wantLevel)
		}
	}

	if ParseFormat("console") != FormatText {
		t.Error("console should map to text format")
	}
	if ParseFormat("") != FormatJSON {
		t.Error("empty format should default to json")
	}
}

func TestConfigFrom(t *testing.T) {
	var buf bytes.Buffer
	cfg := ConfigFrom("debug", "text", &buf, "1.2.3")

	if cfg.Level != LevelDebug || cfg.Format != FormatText {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ServiceName != "wardenxt" || cfg.ServiceVersion != "1.2.3" {
		t.Errorf("unexpected service identity: %s %s", cfg.ServiceName, cfg.ServiceVersion)
	}

	New(cfg).Debug("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: NewOutput(&buf)})

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("kept", "incident_id", "INC-1")
	entry := decodeEntry(t, &buf)
	if entry["msg"] != "kept" || entry["incident_id"] != "INC-1" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = NewOutput(&buf)

	New(cfg).Info("started")

	entry := decodeEntry(t, &buf)
	if entry["service"] != "wardenxt" {
		t.Errorf("expected service attribute, got %v", entry["service"])
	}
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantKind string
	}{
		{
			name:     "coded error",
			err:      errors.NewCommandBlockedError("rm -rf /", "recursive delete of root"),
			wantCode: "SAFETY-001",
			wantKind: "safety_rejection",
		},
		{
			name:     "wrapped coded error",
			err:      fmt.Errorf("execute: %w", errors.NewRunbookNotFoundError("INC-9")),
			wantCode: "RUNBOOK-001",
			wantKind: "not_found",
		},
		{
			name: "plain error",
			err:  fmt.Errorf("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: NewOutput(&buf)})

			logger.WithError(tt.err).Info("failed")
			entry := decodeEntry(t, &buf)

			if tt.wantCode == "" {
				if entry["error"] != "boom" {
					t.Errorf("expected plain error message, got %v", entry["error"])
				}
				return
			}
			if entry["error_code"] != tt.wantCode {
				t.Errorf("error_code = %v, want %s", entry["error_code"], tt.wantCode)
			}
			if entry["error_kind"] != tt.wantKind {
				t.Errorf("error_kind = %v, want %s", entry["error_kind"], tt.wantKind)
			}
		})
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: NewOutput(&buf)})

	err := errors.Wrap(errors.ErrCodeFileUnmarshal, "failed to parse", fmt.Errorf("bad yaml")).
		WithSuggestion("fix it").
		WithDocs("https://example.com")
	logger.LogError(err)

	entry := decodeEntry(t, &buf)
	for _, key := range []string{"error_code", "error_message", "suggestions", "docs_url", "cause"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("expected %s field in %v", key, entry)
		}
	}

	buf.Reset()
	logger.LogError(nil)
	if buf.Len() != 0 {
		t.Error("nil error should not log")
	}
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: NewOutput(&buf)})
	logger.LogErrorContext(ctx, errors.NewInvalidRequestError("bad"))

	entry := decodeEntry(t, &buf)
	if entry["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v, want %s", entry["trace_id"], span.SpanContext().TraceID())
	}

	if New(DefaultConfig()).WithContext(context.Background()) == nil {
		t.Error("WithContext without a span should return the logger")
	}
}

func TestDefaultLogger(t *testing.T) {
	custom := Discard()
	SetDefaultLogger(custom)
	defer SetDefaultLogger(nil)

	if DefaultLogger() != custom {
		t.Error("expected the configured default logger")
	}
}
