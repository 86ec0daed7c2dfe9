// Package scenario provides the scenario command.
package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	internalscenario "github.com/schmitthub/rdsharness/internal/scenario"
	"github.com/schmitthub/rdsharness/internal/signals"
	"github.com/schmitthub/rdsharness/internal/suitelock"
	"github.com/spf13/cobra"
)

const cleanupTimeout = 30 * time.Second

// Flow names accepted by the command.
const (
	FlowCleanStart           = "clean-start"
	FlowRestart              = "restart"
	FlowRestore              = "restore"
	FlowRestoreWithoutBackup = "restore-without-backup"
)

// Flows lists the flow names in help order.
var Flows = []string{FlowCleanStart, FlowRestart, FlowRestore, FlowRestoreWithoutBackup}

// ScenarioOptions holds options for the scenario command.
type ScenarioOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (internalscenario.Stack, error)
	Lock      func(context.Context) (*suitelock.Lock, error)

	Flow    string
	Service string
	Down    bool
}

// NewCmdScenario creates the scenario command.
func NewCmdScenario(f *cmdutil.Factory, runF func(context.Context, *ScenarioOptions) error) *cobra.Command {
	opts := &ScenarioOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack: func(ctx context.Context) (internalscenario.Stack, error) {
			s, err := f.Stack(ctx)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Lock: f.Lock,
	}

	cmd := &cobra.Command{
		Use:   "scenario FLOW",
		Short: "Run a lifecycle scenario against the service",
		Long: `Runs one lifecycle scenario and prints the endpoint of the ready service.

Every flow begins with a clean start: the deployment is shut down, the data
and backup volumes are removed and the service is started fresh.

Flows:
  clean-start              provision a fresh instance
  restart                  clean start, then kill and recreate keeping the data volume
  restore                  clean start, back up, destroy the data volume and restore
  restore-without-backup   as restore, but without taking a backup first

The service is left running unless --down is given.`,
		Example: `  # Provision a fresh instance
  rdsharness scenario clean-start

  # Restart a different service and tear everything down afterwards
  rdsharness scenario restart --service rds-test2 --down`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: Flows,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Flow = args[0]
			if !isFlow(opts.Flow) {
				return cmdutil.FlagErrorf("unknown flow %q (want one of %s)", opts.Flow, strings.Join(Flows, ", "))
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return scenarioRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Service, "service", "s", "", "Service to drive (default from config services.main)")
	cmd.Flags().BoolVar(&opts.Down, "down", false, "Shut the deployment down after the scenario")

	return cmd
}

func isFlow(name string) bool {
	for _, f := range Flows {
		if f == name {
			return true
		}
	}
	return false
}

func scenarioRun(ctx context.Context, opts *ScenarioOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	service := opts.Service
	if service == "" {
		service = cfg.Services.Main
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

	start := time.Now()
	seq := internalscenario.New(stack, cfg.Scenario(), internalscenario.WithLogger(ios.Logger))
	ep, err := runFlow(ctx, seq, opts.Flow, service)
	if err != nil {
		ios.Failuref("%s %s: %s after %s", opts.Flow, service, seq.State(), units.HumanDuration(time.Since(start)))
		if signals.Interrupted(ctx) || opts.Down {
			shutdown(ctx, ios, stack)
		}
		return err
	}

	ios.Successf("%s %s ready at %s (%s)", opts.Flow, service, ep, units.HumanDuration(time.Since(start)))
	fmt.Fprintln(ios.Out, ep.String())

	if opts.Down {
		shutdown(ctx, ios, stack)
	}
	return nil
}

func runFlow(ctx context.Context, seq *internalscenario.Sequencer, flow, service string) (compose.Endpoint, error) {
	ep, err := seq.CleanStart(ctx, service)
	if err != nil || flow == FlowCleanStart {
		return ep, err
	}
	switch flow {
	case FlowRestart:
		return seq.RestartPreservingData(ctx, service)
	case FlowRestore:
		return seq.BackupThenRestore(ctx, service)
	case FlowRestoreWithoutBackup:
		return seq.RestoreWithoutBackup(ctx, service)
	}
	return compose.Endpoint{}, fmt.Errorf("unknown flow %q", flow)
}

func shutdown(ctx context.Context, ios *iostreams.IOStreams, stack internalscenario.Stack) {
	cleanupCtx, cancel := signals.CleanupContext(ctx, cleanupTimeout)
	defer cancel()
	if err := stack.ForceShutdown(cleanupCtx); err != nil {
		ios.Logger.Warn().Err(err).Msg("force shutdown failed")
		return
	}
	ios.Logger.Info().Msg("deployment shut down")
}
