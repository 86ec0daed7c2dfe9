package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/compose"
	internalconfig "github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/spf13/cobra"
)

// instanceIDVar is the variable whose absence makes the service refuse to start.
const instanceIDVar = "DB_INSTANCE_ID"

// CheckOptions holds options for the config check command.
type CheckOptions struct {
	IOStreams *iostreams.IOStreams
	WorkDir   string

	File string
}

// NewCmdCheck creates the config check command.
func NewCmdCheck(f *cmdutil.Factory, runF func(context.Context, *CheckOptions) error) *cobra.Command {
	opts := &CheckOptions{
		IOStreams: f.IOStreams,
		WorkDir:   f.WorkDir,
		File:      f.ConfigFile,
	}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate rdsharness.yaml and the compose file it points at",
		Long: `Validates the harness configuration and the compose deployment.

Checks for:
  - Valid field values (ports, timeouts, volume keys)
  - A parseable compose file
  - Every configured service is declared and publishes the database port
  - The no_instance_id service really lacks DB_INSTANCE_ID`,
		Example: `  # Validate configuration in the current directory
  rdsharness config check

  # Validate a specific file
  rdsharness config check --file ci/rdsharness.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return checkRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", opts.File, "Path to the configuration file")

	return cmd
}

func checkRun(ctx context.Context, opts *CheckOptions) error {
	ios := opts.IOStreams
	logger.Debug().Str("workdir", opts.WorkDir).Str("file", opts.File).Msg("checking configuration")

	var loaderOpts []internalconfig.LoaderOption
	if opts.File != "" {
		loaderOpts = append(loaderOpts, internalconfig.WithConfigFile(opts.File))
	}
	loader := internalconfig.NewLoader(opts.WorkDir, loaderOpts...)

	cfg, err := loader.Load()
	if err != nil {
		ios.Failuref("Failed to load configuration")
		var multiErr *internalconfig.MultiValidationError
		if errors.As(err, &multiErr) {
			for _, e := range multiErr.ValidationErrors() {
				fmt.Fprintf(ios.ErrOut, "  - %s\n", e)
			}
		} else {
			fmt.Fprintf(ios.ErrOut, "  %s\n", err)
		}
		return cmdutil.SilentError
	}

	stack, err := compose.Open(ctx, compose.Options{File: cfg.ComposeFile, ProjectName: cfg.ProjectName})
	if err != nil {
		ios.Failuref("Failed to load compose file")
		fmt.Fprintf(ios.ErrOut, "  %s\n", err)
		return cmdutil.SilentError
	}

	problems := composeProblems(stack, cfg)
	if len(problems) > 0 {
		ios.Failuref("Compose file does not match configuration")
		for _, p := range problems {
			fmt.Fprintf(ios.ErrOut, "  - %s\n", p)
		}
		return cmdutil.SilentError
	}

	source := loader.ConfigPath()
	if !loader.Exists() {
		source = "defaults"
	}
	ios.Successf("Configuration is valid")
	fmt.Fprintln(ios.ErrOut)
	fmt.Fprintf(ios.ErrOut, "  Source:   %s\n", source)
	fmt.Fprintf(ios.ErrOut, "  Compose:  %s\n", stack.File())
	fmt.Fprintf(ios.ErrOut, "  Project:  %s\n", stack.Project())
	fmt.Fprintf(ios.ErrOut, "  Service:  %s (port %d)\n", cfg.Services.Main, cfg.Port)
	fmt.Fprintf(ios.ErrOut, "  Volumes:  %s, %s\n", stack.VolumeName(cfg.Volumes.Data), stack.VolumeName(cfg.Volumes.Backup))
	fmt.Fprintf(ios.ErrOut, "  Ready:    %s\n", cfg.Timeouts.Ready)
	return nil
}

func composeProblems(stack *compose.Stack, cfg *internalconfig.Config) []string {
	var problems []string
	for _, svc := range []struct{ key, name string }{
		{"services.main", cfg.Services.Main},
		{"services.no_password", cfg.Services.NoPassword},
		{"services.no_instance_id", cfg.Services.NoInstanceID},
	} {
		if svc.name == "" {
			continue
		}
		if _, err := stack.Service(svc.name); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %s", svc.key, err))
			continue
		}
		if !stack.PublishesPort(svc.name, cfg.Port) {
			problems = append(problems, fmt.Sprintf("%s: %s does not publish port %d", svc.key, svc.name, cfg.Port))
		}
	}

	if cfg.Services.NoInstanceID != "" {
		if env, err := stack.Environment(cfg.Services.NoInstanceID); err == nil && env[instanceIDVar] != "" {
			problems = append(problems, fmt.Sprintf("services.no_instance_id: %s sets %s", cfg.Services.NoInstanceID, instanceIDVar))
		}
	}
	return problems
}
