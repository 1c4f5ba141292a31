package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// Provider names accepted by New.
const (
	NameGemini = "gemini"
)

// Defaults applied by New.
const (
	DefaultModel       = "gemini-2.0-flash-exp"
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTimeout     = 120 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 8192
)

// Config selects and configures a provider.
type Config struct {
	Name        string        `mapstructure:"name" yaml:"name" json:"name"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	Model       string        `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
}

// DefaultConfig returns a Gemini configuration without credentials.
func DefaultConfig() Config {
	return Config{
		Name:        NameGemini,
		Model:       DefaultModel,
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	return c
}

// New builds the client named by cfg.Name. A missing API key yields a
// PROVIDER-001 error; callers that can run without generation may fall
// back to Unconfigured.
func New(cfg Config) (Client, error) {
	cfg = cfg.withDefaults()
	switch strings.ToLower(cfg.Name) {
	case NameGemini:
		g, err := NewGemini(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, errors.New(errors.ErrCodeProviderNotConfigured,
			fmt.Sprintf("unknown provider %q", cfg.Name)).
			WithSuggestion("Set provider.name to 'gemini'")
	}
}

// Unconfigured is a Client for deployments without generation
// credentials. Every call fails with PROVIDER-001.
type Unconfigured struct {
	Name  string
	Model string
}

func (u Unconfigured) err() error {
	return notConfiguredError(u.Name)
}

// Generate implements Client.
func (u Unconfigured) Generate(context.Context, *GenerateRequest) (*GenerateResponse, error) {
	return nil, u.err()
}

// Info implements Client.
func (u Unconfigured) Info() Info {
	return Info{Name: u.Name, Model: u.Model, Description: "no provider credentials configured"}
}

// Health implements Client.
func (u Unconfigured) Health(context.Context) error {
	return u.err()
}

// Close implements Client.
func (Unconfigured) Close() error {
	return nil
}

func notConfiguredError(name string) *errors.WardenError {
	if name == "" {
		name = NameGemini
	}
	return errors.New(errors.ErrCodeProviderNotConfigured,
		fmt.Sprintf("provider %s has no API key", name)).
		WithSuggestions(
			"Set GEMINI_API_KEY or WARDENXT_PROVIDER_API_KEY",
			"Or set provider.api_key in the config file",
		)
}
