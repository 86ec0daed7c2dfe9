// Package port provides the service port command.
package port

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

// PortOptions holds options for the port command.
type PortOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Service       string
	ContainerPort int
	Check         bool
}

// NewCmdPort creates the service port command.
func NewCmdPort(f *cmdutil.Factory, runF func(context.Context, *PortOptions) error) *cobra.Command {
	opts := &PortOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:   "port [SERVICE]",
		Short: "Print the host endpoint publishing the database port",
		Example: `  # Print the endpoint of the main service
  rdsharness service port

  # Fail unless the endpoint accepts connections right now
  rdsharness service port rds-test1 --check`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Service = args[0]
			}
			if opts.ContainerPort < 0 || opts.ContainerPort > 65535 {
				return cmdutil.FlagErrorf("invalid container port %d", opts.ContainerPort)
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return portRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.ContainerPort, "container-port", "p", 0, "Container port to resolve (default from config)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Probe the endpoint once and fail if it refuses connections")

	return cmd
}

func portRun(ctx context.Context, opts *PortOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	service := cmdutil.ServiceArg([]string{opts.Service}, cfg.Services.Main)
	containerPort := opts.ContainerPort
	if containerPort == 0 {
		containerPort = cfg.Port
	}

	stack, err := opts.Stack(ctx)
	if err != nil {
		cmdutil.HandleError(ios, err)
		return cmdutil.SilentError
	}

	ep, err := stack.Address(ctx, service, containerPort)
	if err != nil {
		return err
	}
	if opts.Check {
		// A zero timeout evaluates the probe exactly once.
		if err := poll.Until(ctx, readiness.PortOpen(ep, cfg.Timeouts.Dial),
			poll.WithTimeout(0), poll.WithDescription(ep.String()+" accepting connections"),
		); err != nil {
			return err
		}
	}

	fmt.Fprintln(ios.Out, ep.String())
	return nil
}
