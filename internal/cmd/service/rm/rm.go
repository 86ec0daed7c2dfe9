// Package rm provides the service rm command.
package rm

import (
	"context"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/spf13/cobra"
)

// RmOptions holds options for the rm command.
type RmOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Force    bool
	Services []string
}

// NewCmdRm creates the service rm command.
func NewCmdRm(f *cmdutil.Factory, runF func(context.Context, *RmOptions) error) *cobra.Command {
	opts := &RmOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:     "rm [SERVICE...]",
		Aliases: []string{"remove"},
		Short:   "Remove stopped service containers",
		Long: `Removes service containers. Named volumes are kept.

Use --force to stop running containers first.`,
		Example: `  # Remove the stopped main service container
  rdsharness service rm

  # Stop and remove a running container
  rdsharness service rm --force rds-test1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Services = args
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return rmRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Stop running containers before removing them")

	return cmd
}

func rmRun(ctx context.Context, opts *RmOptions) error {
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
			err = svc.Rm(ctx, opts.Force)
		}
		if err != nil {
			failed++
			cmdutil.HandleError(ios, err)
			continue
		}
		ios.Successf("%s removed", name)
	}
	if failed > 0 {
		return cmdutil.SilentError
	}
	return nil
}
