package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhishekK50/wardenxt/internal/ux"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect WardenXT configuration",
	Long: `Inspect the effective configuration after defaults, the config file and
WARDENXT_* environment overrides are merged. API keys are masked.

Examples:
  # View the effective configuration
  wardenxt config view

  # Show which config file was read
  wardenxt config path`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file in use",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	redacted := cfg.Redacted()

	if outFormat != "" && outFormat != "text" {
		return output(cmd, redacted)
	}
	data, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.File == "" {
		return ux.NewErrorWithSuggestion(fmt.Errorf("no config file found"),
			"Create ./wardenxt.yaml or $HOME/.wardenxt/config.yaml, or pass --config")
	}
	fmt.Fprintln(cmd.OutOrStdout(), cfg.File)
	return nil
}
