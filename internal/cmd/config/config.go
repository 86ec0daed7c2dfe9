package config

import (
	"github.com/schmitthub/rdsharness/internal/cmd/config/check"
	"github.com/schmitthub/rdsharness/internal/cmd/config/show"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdConfig creates the config command.
func NewCmdConfig(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
		Long:  `Commands for inspecting and validating rdsharness configuration.`,
	}

	cmd.AddCommand(check.NewCmdCheck(f, nil))
	cmd.AddCommand(show.NewCmdShow(f, nil))

	return cmd
}
