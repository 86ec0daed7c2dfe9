// Package exec provides the service exec command.
package exec

import (
	"context"
	"fmt"
	"strings"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/spf13/cobra"
)

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	Stack     func(context.Context) (*compose.Stack, error)

	Service string
	Command []string
	Backup  bool
}

// NewCmdExec creates the service exec command.
func NewCmdExec(f *cmdutil.Factory, runF func(context.Context, *ExecOptions) error) *cobra.Command {
	opts := &ExecOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		Stack:     f.Stack,
	}

	cmd := &cobra.Command{
		Use:   "exec SERVICE [--] [COMMAND [ARG...]]",
		Short: "Run a command in a running service container",
		Long: `Runs a command inside a running service container and waits for it to exit.

The command's output is printed to stdout. A non-zero exit status fails the
command. With --backup the configured backup command is run instead.`,
		Example: `  # Take a backup
  rdsharness service exec rds-test1 --backup

  # Inspect the data directory
  rdsharness service exec rds-test1 -- ls -la /storage/data`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Service = args[0]
			opts.Command = args[1:]
			if opts.Backup && len(opts.Command) > 0 {
				return cmdutil.FlagErrorf("--backup cannot be combined with a command")
			}
			if !opts.Backup && len(opts.Command) == 0 {
				return cmdutil.FlagErrorf("specify a command or use --backup")
			}
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return execRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Backup, "backup", "b", false, "Run the configured backup command")

	return cmd
}

func execRun(ctx context.Context, opts *ExecOptions) error {
	ios := opts.IOStreams

	command := joinArgs(opts.Command)
	if opts.Backup {
		cfg, err := opts.Config()
		if err != nil {
			return err
		}
		command = cfg.BackupCommand
	}

	stack, err := opts.Stack(ctx)
	if err != nil {
		cmdutil.HandleError(ios, err)
		return cmdutil.SilentError
	}

	svc, err := stack.Service(opts.Service)
	if err != nil {
		return err
	}
	res, err := svc.Exec(ctx, command)
	fmt.Fprint(ios.Out, res.Output)
	if err != nil {
		return err
	}
	return nil
}

// joinArgs rebuilds a command line that splits back into args.
func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\#") {
			a = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
