// Package check provides the check command.
package check

import (
	"context"
	"fmt"
	"time"

	units "github.com/docker/go-units"
	"github.com/schmitthub/rdsharness/internal/checks"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/scenario"
	"github.com/schmitthub/rdsharness/internal/signals"
	"github.com/schmitthub/rdsharness/internal/suitelock"
	"github.com/spf13/cobra"
)

const cleanupTimeout = 30 * time.Second

// CheckOptions holds options for the check command.
type CheckOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (scenario.Stack, error)
	Lock      func(context.Context) (*suitelock.Lock, error)
	// Connect overrides how checks reach the database. Nil uses lib/pq.
	Connect checks.ConnectFunc

	Names    []string
	Selected []checks.Check
	All      bool
	List     bool
	Keep     bool
	JUnit    string
}

// NewCmdCheck creates the check command.
func NewCmdCheck(f *cmdutil.Factory, runF func(context.Context, *CheckOptions) error) *cobra.Command {
	opts := &CheckOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack: func(ctx context.Context) (scenario.Stack, error) {
			s, err := f.Stack(ctx)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Lock: f.Lock,
	}

	cmd := &cobra.Command{
		Use:   "check [CHECK...]",
		Short: "Run end-to-end checks against the service",
		Long: `Runs end-to-end checks against the PostgreSQL service.

Each check starts from a clean deployment, so checks are independent of
each other and of whatever state was left behind. Checks run one at a time
and a failing check does not stop the rest.

The deployment is shut down when the run ends unless --keep is given.`,
		Example: `  # Run every check
  rdsharness check --all

  # Run two checks and leave the service up for inspection
  rdsharness check connect keeps-data-after-restart --keep

  # Write a JUnit report for CI
  rdsharness check --all --junit reports/rds.xml

  # Show the available checks
  rdsharness check --list`,
		ValidArgs: checks.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Names = args
			if opts.List {
				return listRun(opts)
			}
			selected, err := selectChecks(opts.Names, opts.All)
			if err != nil {
				return err
			}
			opts.Selected = selected
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return checkRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Run every check")
	cmd.Flags().BoolVarP(&opts.List, "list", "l", false, "List available checks and exit")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "Leave the deployment running after the checks")
	cmd.Flags().StringVar(&opts.JUnit, "junit", "", "Write a JUnit XML report to `FILE`")
	cmd.MarkFlagsMutuallyExclusive("all", "list")

	return cmd
}

func selectChecks(names []string, all bool) ([]checks.Check, error) {
	if all {
		if len(names) > 0 {
			return nil, cmdutil.FlagErrorf("--all cannot be combined with check names")
		}
		return checks.All(), nil
	}
	if len(names) == 0 {
		return nil, cmdutil.FlagErrorf("specify at least one check or use --all")
	}

	selected := make([]checks.Check, 0, len(names))
	for _, name := range names {
		c, ok := checks.Lookup(name)
		if !ok {
			return nil, cmdutil.FlagErrorf("unknown check %q (see --list)", name)
		}
		selected = append(selected, c)
	}
	return selected, nil
}

func listRun(opts *CheckOptions) error {
	all := checks.All()
	width := 0
	for _, c := range all {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}
	for _, c := range all {
		fmt.Fprintf(opts.IOStreams.Out, "%-*s  %s\n", width, c.Name, c.Description)
	}
	return nil
}

func checkRun(ctx context.Context, opts *CheckOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	lock, err := opts.Lock(ctx)
	if err != nil {
		return err
	}
	defer lock.Release()

	stack, err := opts.Stack(ctx)
	if err != nil {
		cmdutil.HandleError(ios, err)
		return cmdutil.SilentError
	}

	env := checks.Env{
		Stack:               stack,
		Scenario:            cfg.Scenario(),
		Service:             cfg.Services.Main,
		NoPasswordService:   cfg.Services.NoPassword,
		NoInstanceIDService: cfg.Services.NoInstanceID,
		Credentials:         cfg.Credentials(),
		Logger:              ios.Logger,
		Connect:             opts.Connect,
	}

	started := time.Now()
	failed := 0
	results := checks.Run(ctx, env, opts.Selected, func(r checks.Result) {
		if r.Err != nil {
			failed++
			ios.Failuref("%s (%s): %v", r.Name, units.HumanDuration(r.Elapsed), r.Err)
			return
		}
		ios.Successf("%s (%s)", r.Name, units.HumanDuration(r.Elapsed))
	})

	if !opts.Keep || signals.Interrupted(ctx) {
		cleanupCtx, cancel := signals.CleanupContext(ctx, cleanupTimeout)
		defer cancel()
		if err := stack.ForceShutdown(cleanupCtx); err != nil {
			ios.Logger.Warn().Err(err).Msg("force shutdown failed")
		}
	}

	if opts.JUnit != "" {
		if err := checks.WriteJUnitFile(opts.JUnit, cfg.ProjectName, opts.Selected, results, started); err != nil {
			ios.Logger.Warn().Err(err).Str("path", opts.JUnit).Msg("writing junit report failed")
		}
	}

	skipped := len(opts.Selected) - len(results)
	summary := fmt.Sprintf("%d passed, %d failed", len(results)-failed, failed)
	if skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", skipped)
	}
	fmt.Fprintln(ios.Out, summary)

	if signals.Interrupted(ctx) {
		return signals.ErrInterrupted
	}
	if failed > 0 || skipped > 0 {
		return cmdutil.SilentError
	}
	return nil
}
