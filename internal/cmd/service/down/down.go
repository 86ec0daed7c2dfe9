// Package down provides the service down command.
package down

import (
	"context"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/spf13/cobra"
)

// DownOptions holds options for the down command.
type DownOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Volumes bool
}

// NewCmdDown creates the service down command.
func NewCmdDown(f *cmdutil.Factory, runF func(context.Context, *DownOptions) error) *cobra.Command {
	opts := &DownOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Force-stop and remove every container of the deployment",
		Long: `Stops every container of the deployment immediately and removes it.

Named volumes are kept unless --volumes is given, in which case the data and
backup volumes are removed as well.`,
		Example: `  # Tear down containers
  rdsharness service down

  # Tear down containers and wipe the data and backup volumes
  rdsharness service down --volumes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return downRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Volumes, "volumes", "v", false, "Also remove the data and backup volumes")

	return cmd
}

func downRun(ctx context.Context, opts *DownOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	stack, err := opts.Stack(ctx)
	if err != nil {
		cmdutil.HandleError(ios, err)
		return cmdutil.SilentError
	}

	if err := stack.ForceShutdown(ctx); err != nil {
		return err
	}
	ios.Successf("%s shut down", stack.Project())

	if !opts.Volumes {
		return nil
	}
	for _, key := range []string{cfg.Volumes.Data, cfg.Volumes.Backup} {
		if err := stack.RemoveVolume(ctx, key); err != nil {
			return err
		}
		ios.Successf("%s removed", stack.VolumeName(key))
	}
	return nil
}
