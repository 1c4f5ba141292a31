package log

import (
	"io"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat accepts "json", "text" or "console"; anything else is JSON.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console":
		return FormatText
	}
	return FormatJSON
}

// Output is the destination of log records.
type Output struct {
	writer io.Writer
}

// Writer returns the destination, stderr when unset.
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return os.Stderr
	}
	return o.writer
}

// NewOutput wraps w.
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// Config describes a Logger. ServiceName and ServiceVersion are attached to
// every record so server logs can be joined with traces.
type Config struct {
	Level          Level
	Format         Format
	Output         Output
	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs JSON at info to stderr. Stdout is reserved for command
// output.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatJSON,
		Output:         NewOutput(os.Stderr),
		ServiceName:    "wardenxt",
		ServiceVersion: "dev",
	}
}

// DevelopmentConfig logs text at debug with source locations.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	cfg.Format = FormatText
	cfg.AddSource = true
	return cfg
}

// ConfigFrom builds a Config from the string settings used in configuration
// files and flags. Unknown values fall back to info/json.
func ConfigFrom(level, format string, w io.Writer, serviceVersion string) Config {
	cfg := DefaultConfig()
	cfg.Level = ParseLevel(level)
	cfg.Format = ParseFormat(format)
	if w != nil {
		cfg.Output = NewOutput(w)
	}
	if serviceVersion != "" {
		cfg.ServiceVersion = serviceVersion
	}
	return cfg
}
