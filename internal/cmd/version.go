package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhishekK50/wardenxt/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var versionVerbose bool

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "show detailed version information")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()

	if outFormat == "json" || outFormat == "yaml" {
		return output(cmd, info)
	}
	if versionVerbose {
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wardenxt %s\n", info.Short())
	return nil
}
