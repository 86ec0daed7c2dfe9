// Package show provides the config show command.
package show

import (
	"context"
	"fmt"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/config"
	"github.com/schmitthub/rdsharness/internal/iostreams"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ShowOptions holds options for the config show command.
type ShowOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)

	Defaults bool
}

// NewCmdShow creates the config show command.
func NewCmdShow(f *cmdutil.Factory, runF func(context.Context, *ShowOptions) error) *cobra.Command {
	opts := &ShowOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
	}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Prints the configuration after defaults, rdsharness.yaml and
RDSHARNESS_* environment overrides have been merged.

The output is itself a valid rdsharness.yaml.`,
		Example: `  # Show the effective configuration
  rdsharness config show

  # Start a config file from the built-in defaults
  rdsharness config show --defaults > rdsharness.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return showRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Defaults, "defaults", false, "Print built-in defaults, ignoring files and environment")

	return cmd
}

func showRun(_ context.Context, opts *ShowOptions) error {
	cfg := config.DefaultConfig()
	if !opts.Defaults {
		var err error
		cfg, err = opts.Config()
		if err != nil {
			return err
		}
	}

	enc := yaml.NewEncoder(opts.IOStreams.Out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return enc.Close()
}
