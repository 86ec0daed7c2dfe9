// Package rdsharness is the CLI entry point, kept out of package main so it
// can be tested.
package rdsharness

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/rdsharness/internal/cmd/factory"
	"github.com/schmitthub/rdsharness/internal/cmd/root"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/schmitthub/rdsharness/internal/signals"
	"github.com/schmitthub/rdsharness/internal/suitelock"
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

const (
	exitOk          = 0
	exitError       = 1
	exitUsage       = 2
	exitLocked      = 3
	exitInterrupted = 130
)

// Main is the entry point for the rdsharness CLI.
// It initializes the Factory, creates the root command, and executes it.
func Main() int {
	// Ensure logs are flushed on exit
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	defer f.CloseEngine()

	ctx, cancel := signals.SetupSignalContext(context.Background())
	defer cancel()

	rootCmd := root.NewCmdRoot(f, BuildDate)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	return exitCode(f.IOStreams, cmd, err, signals.Interrupted(ctx))
}

func exitCode(ios *iostreams.IOStreams, cmd *cobra.Command, err error, interrupted bool) int {
	if err == nil {
		return exitOk
	}

	var flagErr *cmdutil.FlagError
	switch {
	case interrupted || errors.Is(err, signals.ErrInterrupted):
		fmt.Fprintln(ios.ErrOut, "Interrupted")
		return exitInterrupted
	case errors.Is(err, cmdutil.SilentError):
		return exitError
	case errors.As(err, &flagErr):
		fmt.Fprintf(ios.ErrOut, "Error: %s\n", err)
		if cmd != nil {
			fmt.Fprintf(ios.ErrOut, "\n%s", cmd.UsageString())
		}
		return exitUsage
	case errors.Is(err, suitelock.ErrLocked):
		cmdutil.HandleError(ios, err)
		fmt.Fprintln(ios.ErrOut, "Wait for the other run to finish and try again.")
		return exitLocked
	}

	cmdutil.HandleError(ios, err)
	if cmd != nil {
		fmt.Fprintf(ios.ErrOut, "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	return exitError
}
