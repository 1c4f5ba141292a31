// Package config loads WardenXT settings from defaults, an optional YAML
// file and the environment, in increasing precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/provider"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. WARDENXT_SERVER_PORT.
const EnvPrefix = "WARDENXT"

// Config is the complete configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Provider  provider.Config `mapstructure:"provider" yaml:"provider" json:"provider"`
	Incidents IncidentsConfig `mapstructure:"incidents" yaml:"incidents" json:"incidents"`
	Safety    SafetyConfig    `mapstructure:"safety" yaml:"safety" json:"safety"`
	Runbooks  RunbooksConfig  `mapstructure:"runbooks" yaml:"runbooks" json:"runbooks"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-" json:"file,omitempty"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address         string        `mapstructure:"address" yaml:"address" json:"address"`
	Port            int           `mapstructure:"port" yaml:"port" json:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`
	// URL is where CLI commands reach a running server.
	URL string `mapstructure:"url" yaml:"url" json:"url"`
}

// ListenAddress joins address and port.
func (s ServerConfig) ListenAddress() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// IncidentsConfig locates incident data.
type IncidentsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// SafetyConfig points at an optional policy file with extra rules.
type SafetyConfig struct {
	PolicyFile string `mapstructure:"policy_file" yaml:"policy_file" json:"policy_file"`
}

// RunbooksConfig holds generation limits. The cache TTL is fixed and only
// reported here.
type RunbooksConfig struct {
	TTL             time.Duration `mapstructure:"-" yaml:"ttl" json:"ttl"`
	DefaultMaxSteps int           `mapstructure:"default_max_steps" yaml:"default_max_steps" json:"default_max_steps"`
}

// LogConfig selects level and format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate" json:"sample_rate"`
	Environment string  `mapstructure:"environment" yaml:"environment" json:"environment"`
}

// Load reads configuration. An explicit path must exist; otherwise
// ./wardenxt.yaml and $HOME/.wardenxt/config.yaml are tried and a missing
// file is fine.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wardenxt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".wardenxt"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The deployed service is configured through these unprefixed names.
	_ = v.BindEnv("provider.api_key", EnvPrefix+"_PROVIDER_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("provider.model", EnvPrefix+"_PROVIDER_MODEL", "GEMINI_MODEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path == "" && stderrors.As(err, &notFound):
		case os.IsNotExist(err):
			return nil, errors.NewFileNotFoundError(path)
		default:
			return nil, errors.NewFileUnmarshalError(v.ConfigFileUsed(), "yaml", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileUnmarshal, "invalid configuration", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Runbooks.TTL = store.TTL
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	cfg.Runbooks.TTL = store.TTL
	return &cfg
}

func setDefaults(v *viper.Viper) {
	p := provider.DefaultConfig()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", p.Timeout+30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.url", "http://localhost:8000")

	v.SetDefault("provider.name", p.Name)
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", p.Model)
	v.SetDefault("provider.base_url", p.BaseURL)
	v.SetDefault("provider.timeout", p.Timeout)
	v.SetDefault("provider.temperature", p.Temperature)
	v.SetDefault("provider.max_tokens", p.MaxTokens)

	v.SetDefault("incidents.dir", "./data/incidents")
	v.SetDefault("safety.policy_file", "")
	v.SetDefault("runbooks.default_max_steps", runbook.DefaultMaxSteps)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.sample_rate", 1.0)
	v.SetDefault("telemetry.environment", "development")
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Runbooks.DefaultMaxSteps <= 0 {
		problems = append(problems, "runbooks.default_max_steps must be positive")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		problems = append(problems, "telemetry.sample_rate must be between 0 and 1")
	}
	if c.Provider.Timeout < 0 {
		problems = append(problems, "provider.timeout must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.NewInvalidRequestError("invalid configuration: "+strings.Join(problems, "; ")).
		WithSuggestion("Check the config file and WARDENXT_* environment variables")
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Provider.APIKey != "" {
		out.Provider.APIKey = "********"
	}
	return &out
}
