// Package logs provides the service logs command.
package logs

import (
	"context"
	"fmt"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/readiness"
	"github.com/spf13/cobra"
)

// LogsOptions holds options for the logs command.
type LogsOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Service string
	Markers bool
}

// NewCmdLogs creates the service logs command.
func NewCmdLogs(f *cmdutil.Factory, runF func(context.Context, *LogsOptions) error) *cobra.Command {
	opts := &LogsOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:   "logs [SERVICE]",
		Short: "Print the log of a service's current container",
		Long: `Prints everything the service's current container has logged.

With --markers, prints how often each lifecycle marker appears instead.`,
		Example: `  # Print the main service log
  rdsharness service logs

  # Count lifecycle markers
  rdsharness service logs rds-test1 --markers`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Service = args[0]
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return logsRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Markers, "markers", "m", false, "Count lifecycle markers instead of printing the log")

	return cmd
}

func logsRun(ctx context.Context, opts *LogsOptions) error {
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

	out, err := stack.Logs(ctx, service)
	if err != nil {
		return err
	}
	if !opts.Markers {
		fmt.Fprint(ios.Out, out)
		return nil
	}

	m := cfg.Markers.WithDefaults()
	for _, row := range []struct {
		name   string
		marker readiness.Marker
	}{
		{"ready", m.Ready},
		{"shutdown", m.Shutdown},
		{"backup_completed", m.BackupCompleted},
		{"missing_instance_id", m.MissingInstanceID},
	} {
		fmt.Fprintf(ios.Out, "%-20s %d\n", row.name, row.marker.Count(out))
	}
	return nil
}
