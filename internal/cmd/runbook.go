package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhishekK50/wardenxt/internal/client"
	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/execution"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/service"
	"github.com/abhishekK50/wardenxt/internal/tui"
)

var runbookCmd = &cobra.Command{
	Use:     "runbook",
	Aliases: []string{"rb"},
	Short:   "Generate, inspect and execute runbooks on a WardenXT server",
	Long: `Drive the runbook API of a running WardenXT server.

Runbooks are cached for 60 minutes after generation. Execution is always
simulated; high-risk commands need --confirm EXECUTE outside dry-run and
blocked commands never run.

Examples:
  wardenxt runbook generate INC-2024-001 --focus diagnostic
  wardenxt runbook show INC-2024-001
  wardenxt runbook execute INC-2024-001 --step 2 --command 0 --live --confirm EXECUTE
  wardenxt runbook history INC-2024-001`,
}

var runbookGenerateCmd = &cobra.Command{
	Use:   "generate <incident-id>",
	Short: "Generate and cache a runbook for an incident",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunbookGenerate,
}

var runbookShowCmd = &cobra.Command{
	Use:   "show <incident-id>",
	Short: "Show the cached runbook for an incident",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunbookShow,
}

var runbookValidateCmd = &cobra.Command{
	Use:   "validate <incident-id>",
	Short: "Re-validate the cached runbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunbookValidate,
}

var runbookExecuteCmd = &cobra.Command{
	Use:   "execute <incident-id>",
	Short: "Execute one runbook command (simulated)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunbookExecute,
}

var runbookHistoryCmd = &cobra.Command{
	Use:   "history <incident-id>",
	Short: "Show the execution history of an incident",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunbookHistory,
}

var runbookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached runbooks",
	Args:  cobra.NoArgs,
	RunE:  runRunbookList,
}

var runbookInvalidateCmd = &cobra.Command{
	Use:   "invalidate <incident-id>",
	Short: "Drop the cached runbook and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunbookInvalidate,
}

var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "List incidents known to the server",
	Args:  cobra.NoArgs,
	RunE:  runIncidents,
}

var (
	genFocus    string
	genMaxSteps int

	execStep    int
	execCommand int
	execLive    bool
	execConfirm string
	execBy      string
)

func init() {
	runbookGenerateCmd.Flags().StringVar(&genFocus, "focus", "all", "focus area: all, diagnostic, remediation, emergency_rollback")
	runbookGenerateCmd.Flags().IntVar(&genMaxSteps, "max-steps", 0, "maximum number of steps (default runbooks.default_max_steps)")

	runbookExecuteCmd.Flags().IntVar(&execStep, "step", 0, "step number to execute")
	runbookExecuteCmd.Flags().IntVar(&execCommand, "command", 0, "zero-based command index within the step")
	runbookExecuteCmd.Flags().BoolVar(&execLive, "live", false, "request live execution (still simulated, but gated)")
	runbookExecuteCmd.Flags().StringVar(&execConfirm, "confirm", "", "confirmation token for high-risk commands (EXECUTE)")
	runbookExecuteCmd.Flags().StringVar(&execBy, "by", "", "operator recorded in the history (default current user)")
	_ = runbookExecuteCmd.MarkFlagRequired("step")

	runbookCmd.AddCommand(
		runbookGenerateCmd,
		runbookShowCmd,
		runbookValidateCmd,
		runbookExecuteCmd,
		runbookHistoryCmd,
		runbookListCmd,
		runbookInvalidateCmd,
	)
	rootCmd.AddCommand(runbookCmd, incidentsCmd)
}

func runRunbookGenerate(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}

	var rb *runbook.Runbook
	err = tui.RunWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Generating runbook for "+args[0], func(ctx context.Context) error {
		var genErr error
		rb, genErr = c.Generate(ctx, args[0], service.GenerateRequest{FocusArea: genFocus, MaxSteps: genMaxSteps})
		return genErr
	})
	if err != nil {
		return err
	}
	return output(cmd, rb)
}

func runRunbookShow(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	rb, err := c.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, rb)
}

func runRunbookValidate(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	res, err := c.Validate(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := output(cmd, res); err != nil {
		return err
	}
	if !res.IsValid {
		return invalidRunbook(res)
	}
	return nil
}

func runRunbookExecute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := apiClient()
	if err != nil {
		return err
	}

	dryRun := !execLive
	req := client.ExecuteRequest{
		StepNumber:       execStep,
		CommandIndex:     execCommand,
		DryRun:           &dryRun,
		ConfirmationText: execConfirm,
		ExecutedBy:       operator(),
	}

	res, err := c.Execute(ctx, args[0], req)
	if errors.KindOf(err) == errors.KindApprovalRequired && execConfirm == "" && tui.ShouldPrompt() {
		token, perr := confirmInteractively(cmd, c, args[0])
		if perr != nil {
			return perr
		}
		req.ConfirmationText = token
		res, err = c.Execute(ctx, args[0], req)
	}
	if err != nil {
		return err
	}

	if err := output(cmd, res); err != nil {
		return err
	}
	if res.Success {
		return nil
	}
	reason := "execution failed"
	if res.Error != nil {
		reason = *res.Error
	}
	if strings.HasPrefix(reason, execution.BlockedPrefix) {
		return errors.NewCommandBlockedError(res.Command, strings.TrimPrefix(reason, execution.BlockedPrefix))
	}
	return errors.New(errors.ErrCodeInternal, reason)
}

// confirmInteractively shows the gated command and asks for the token.
func confirmInteractively(cmd *cobra.Command, c *client.Client, incidentID string) (string, error) {
	rb, err := c.Get(cmd.Context(), incidentID)
	if err != nil {
		return "", err
	}
	step, err := rb.Step(execStep)
	if err != nil {
		return "", err
	}
	command, err := step.Command(execCommand)
	if err != nil {
		return "", err
	}
	return tui.PromptForConfirmation(command)
}

func runRunbookHistory(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	hist, err := c.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, hist)
}

func runRunbookList(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	listing, err := c.List(cmd.Context())
	if err != nil {
		return err
	}
	return output(cmd, listing)
}

func runRunbookInvalidate(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	res, err := c.Invalidate(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output(cmd, res)
}

func runIncidents(cmd *cobra.Command, args []string) error {
	c, err := apiClient()
	if err != nil {
		return err
	}
	list, err := c.Incidents(cmd.Context())
	if err != nil {
		return err
	}
	return output(cmd, list)
}

func invalidRunbook(res runbook.ValidationResult) error {
	return errors.NewRunbookInvalidError(fmt.Sprintf("%d blocking issue(s)", len(res.Issues)))
}

// operator defaults --by to the local user name.
func operator() string {
	if execBy != "" {
		return execBy
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
