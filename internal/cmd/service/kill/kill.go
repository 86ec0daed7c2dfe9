// Package kill provides the service kill command.
package kill

import (
	"context"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/spf13/cobra"
)

// KillOptions holds options for the kill command.
type KillOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Services []string
}

// NewCmdKill creates the service kill command.
func NewCmdKill(f *cmdutil.Factory, runF func(context.Context, *KillOptions) error) *cobra.Command {
	opts := &KillOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:   "kill [SERVICE...]",
		Short: "Send SIGKILL to service containers",
		Long: `Kills service containers without a graceful shutdown.

The containers are left in place; remove them with "rdsharness service rm".`,
		Example: `  # Kill the main service
  rdsharness service kill`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Services = args
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return killRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func killRun(ctx context.Context, opts *KillOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	services := opts.Services
	if len(services) == 0 {
		services = []string{cfg.Services.Main}
	}

	stack, err := opts.Stack(ctx)
	if err != nil {
		cmdutil.HandleError(ios, err)
		return cmdutil.SilentError
	}

	failed := 0
	for _, name := range services {
		svc, err := stack.Service(name)
		if err == nil {
			err = svc.Kill(ctx)
		}
		if err != nil {
			failed++
			cmdutil.HandleError(ios, err)
			continue
		}
		ios.Successf("%s killed", name)
	}
	if failed > 0 {
		return cmdutil.SilentError
	}
	return nil
}
