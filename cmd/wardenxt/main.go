package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhishekK50/wardenxt/internal/cmd"
	"github.com/abhishekK50/wardenxt/internal/exitcode"
	"github.com/abhishekK50/wardenxt/internal/ux"
)

func main() {
	exitcode.Exit(run())
}

func run() int {
	// Cancelled on SIGINT/SIGTERM; serve drains, other commands abort.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitcode.Success
	case ctx.Err() == context.Canceled:
		fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
		return exitcode.Interrupted
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", ux.EnhanceError(err))
	return exitcode.DetermineExitCode(err)
}
