package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <command>",
	Short: "Classify a shell command by risk",
	Long: `Classify a shell command with the same rules the server applies before
execution. Blocked commands exit with status 3.

Examples:
  wardenxt classify "kubectl get pods -n prod"
  wardenxt classify -- rm -rf /`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the safety rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a runbook document",
	Long: `Validate a runbook stored as JSON or YAML without a server. Invalid
runbooks exit with status 4.

Example:
  wardenxt validate --file runbook.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateFile string

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "runbook document (.json, .yaml or .yml)")
	_ = validateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(classifyCmd, rulesCmd, validateCmd)
}

// classifier builds the classifier from the configured policy file.
func classifier() (*safety.Classifier, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return safety.NewFromPolicyFile(cfg.Safety.PolicyFile)
}

func runClassify(cmd *cobra.Command, args []string) error {
	c, err := classifier()
	if err != nil {
		return err
	}

	command := strings.Join(args, " ")
	verdict := c.Classify(command)
	if err := output(cmd, verdict); err != nil {
		return err
	}
	return verdict.Err(command)
}

func runRules(cmd *cobra.Command, args []string) error {
	c, err := classifier()
	if err != nil {
		return err
	}
	return output(cmd, c.Rules())
}

func runValidate(cmd *cobra.Command, args []string) error {
	c, err := classifier()
	if err != nil {
		return err
	}

	rb, err := runbook.Load(validateFile)
	if err != nil {
		return err
	}

	res := runbook.NewValidator(c).Validate(rb)
	if err := output(cmd, res); err != nil {
		return err
	}
	if !res.IsValid {
		return invalidRunbook(res)
	}
	return nil
}
