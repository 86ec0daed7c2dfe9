package root

import (
	"fmt"

	"github.com/schmitthub/rdsharness/internal/cmd/service/down"
	"github.com/schmitthub/rdsharness/internal/cmd/service/logs"
	"github.com/schmitthub/rdsharness/internal/cmd/service/port"
	"github.com/schmitthub/rdsharness/internal/cmd/service/up"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/spf13/cobra"
)

// Alias defines a top-level command alias to a subcommand.
// This follows Docker's pattern where `docker run` is an alias for `docker container run`.
// Each alias creates a new command instance from the factory, overriding only Use and
// optionally Example, while inheriting all other properties (flags, RunE, etc.).
type Alias struct {
	// Use sets the command's Use field (required)
	Use string
	// Example optionally replaces the command's Example field (empty preserves original)
	Example string
	// Command is a factory function that creates the target command
	Command func(*cmdutil.Factory) *cobra.Command
}

// topLevelAliases defines all top-level shortcuts to service subcommands.
var topLevelAliases = []Alias{
	{
		Use:     "up [SERVICE]",
		Example: upExample,
		Command: func(f *cmdutil.Factory) *cobra.Command { return up.NewCmdUp(f, nil) },
	},
	{
		Use:     "down",
		Command: func(f *cmdutil.Factory) *cobra.Command { return down.NewCmdDown(f, nil) },
	},
	{
		Use:     "logs [SERVICE]",
		Command: func(f *cmdutil.Factory) *cobra.Command { return logs.NewCmdLogs(f, nil) },
	},
	{
		Use:     "port [SERVICE]",
		Command: func(f *cmdutil.Factory) *cobra.Command { return port.NewCmdPort(f, nil) },
	},
}

// registerAliases adds all top-level aliases to the root command.
// Each alias gets a fresh command instance from its factory, ensuring
// flags, RunE, and other properties are inherited automatically.
func registerAliases(root *cobra.Command, f *cmdutil.Factory) {
	for _, alias := range topLevelAliases {
		if alias.Use == "" {
			panic("alias has empty Use field")
		}
		if alias.Command == nil {
			panic(fmt.Sprintf("alias %q has nil Command factory", alias.Use))
		}
		cmd := alias.Command(f)
		if cmd == nil {
			panic(fmt.Sprintf("alias %q factory returned nil command", alias.Use))
		}
		cmd.Use = alias.Use
		if alias.Example != "" {
			cmd.Example = alias.Example
		}
		root.AddCommand(cmd)
	}
}

const upExample = `  # Start the main service
  rdsharness up

  # Start a service and block until it accepts connections
  rdsharness up rds-test1 --wait`
