// Package up provides the service up command.
package up

import (
	"context"
	"fmt"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/poll"
	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/spf13/cobra"
)

// UpOptions holds options for the up command.
type UpOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Service string
	Wait    bool
}

// NewCmdUp creates the service up command.
func NewCmdUp(f *cmdutil.Factory, runF func(context.Context, *UpOptions) error) *cobra.Command {
	opts := &UpOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:   "up [SERVICE]",
		Short: "Start a service in the background",
		Long: `Creates and starts a service detached.

With --wait, blocks until the service logs the ready marker and its
published port accepts TCP connections.`,
		Example: `  # Start the main service
  rdsharness service up

  # Start a service and wait for it
  rdsharness service up rds-test1 --wait`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Service = args[0]
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return upRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Wait, "wait", "w", false, "Wait for the service to be ready")

	return cmd
}

func upRun(ctx context.Context, opts *UpOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	service := cmdutil.ServiceArg([]string{opts.Service}, cfg.Services.Main)

	stack, err := opts.Stack(ctx)
	if err != nil {
		cmdutil.HandleError(ios, err)
		return cmdutil.SilentError
	}

	svc, err := stack.Service(service)
	if err != nil {
		return err
	}
	if err := svc.Up(ctx, compose.UpOptions{Detach: true}); err != nil {
		return err
	}
	if !opts.Wait {
		ios.Successf("%s started", service)
		return nil
	}

	markers := cfg.Markers.WithDefaults()
	waitOpts := []poll.Option{
		poll.WithTimeout(cfg.Timeouts.Ready),
		poll.WithInterval(cfg.Timeouts.PollInterval),
	}
	if err := poll.Until(ctx,
		readiness.LogContains(svc, markers.Ready),
		append(waitOpts, poll.WithDescription(service+" ready marker"))...,
	); err != nil {
		return err
	}

	ep, err := svc.Address(ctx, cfg.Port)
	if err != nil {
		return err
	}
	if err := poll.Until(ctx,
		readiness.PortOpen(ep, cfg.Timeouts.Dial),
		append(waitOpts, poll.WithDescription(service+" port "+ep.String()))...,
	); err != nil {
		return err
	}

	ios.Successf("%s ready at %s", service, ep)
	fmt.Fprintln(ios.Out, ep.String())
	return nil
}
