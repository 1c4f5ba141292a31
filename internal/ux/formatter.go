// Package ux holds the CLI output formatters and error presentation.
package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Formatter writes one command result.
type Formatter interface {
	Format(data interface{}) error
}

// FormatterOptions configures every formatter.
type FormatterOptions struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer
	// Compact drops indentation from JSON and YAML.
	Compact bool
	// Renderer produces the text rendering of domain results. It reports
	// false for types it does not handle.
	Renderer func(data interface{}) (string, bool)
}

// NewFormatter returns the formatter for "text" (or ""), "json" or "yaml".
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	o := FormatterOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Writer == nil {
		o.Writer = os.Stdout
	}

	switch format {
	case "text", "":
		return &TextFormatter{opts: o}, nil
	case "json":
		return &JSONFormatter{opts: o}, nil
	case "yaml":
		return &YAMLFormatter{opts: o}, nil
	}
	return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
}

// JSONFormatter writes indented JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

func (f *JSONFormatter) Format(data interface{}) error {
	enc := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// YAMLFormatter writes YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

func (f *YAMLFormatter) Format(data interface{}) error {
	enc := yaml.NewEncoder(f.opts.Writer)
	defer enc.Close()
	if !f.opts.Compact {
		enc.SetIndent(2)
	}
	return enc.Encode(data)
}

// TextFormatter writes the human rendering. Types the Renderer does not know
// must be strings or implement fmt.Stringer.
type TextFormatter struct {
	opts FormatterOptions
}

func (f *TextFormatter) Format(data interface{}) error {
	text, ok := "", false
	if f.opts.Renderer != nil {
		text, ok = f.opts.Renderer(data)
	}
	if !ok {
		switch v := data.(type) {
		case string:
			text = v
		case fmt.Stringer:
			text = v.String()
		default:
			return fmt.Errorf("text formatter cannot render %T; use --format json or yaml", data)
		}
	}
	_, err := fmt.Fprintln(f.opts.Writer, text)
	return err
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*YAMLFormatter)(nil)
	_ Formatter = (*TextFormatter)(nil)
)
