package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhishekK50/wardenxt/internal/client"
	"github.com/abhishekK50/wardenxt/internal/config"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/tui"
	"github.com/abhishekK50/wardenxt/internal/ux"
	"github.com/abhishekK50/wardenxt/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "wardenxt",
	Short: "Safety-gated incident runbooks",
	Long: `wardenxt generates remediation runbooks for incidents with an LLM,
classifies every command by risk, blocks destructive commands outright and
keeps an audit trail of every (simulated) execution.

Run 'wardenxt serve' to start the API, then use the runbook commands to
drive it from a terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgFile   string
	logLevel  string
	outFormat string
	serverURL string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, cancelled on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./wardenxt.yaml or $HOME/.wardenxt/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "format", "o", "text", "output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "WardenXT server URL (default server.url from config)")
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the default.
func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := log.New(log.ConfigFrom(cfg.Log.Level, cfg.Log.Format, w, version.GetInfo().Short()))
	log.SetDefaultLogger(logger)
	return logger
}

// apiClient returns a client for the configured server.
func apiClient() (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Server.URL), nil
}

// output writes data in the selected format.
func output(cmd *cobra.Command, data interface{}) error {
	f, err := ux.NewFormatter(outFormat, &ux.FormatterOptions{
		Writer:   cmd.OutOrStdout(),
		Renderer: tui.Render,
	})
	if err != nil {
		return err
	}
	return f.Format(data)
}
