// Package service provides the service command and its subcommands, thin
// wrappers over single compose operations for manual debugging.
package service

import (
	"github.com/schmitthub/rdsharness/internal/cmd/service/down"
	"github.com/schmitthub/rdsharness/internal/cmd/service/exec"
	"github.com/schmitthub/rdsharness/internal/cmd/service/kill"
	"github.com/schmitthub/rdsharness/internal/cmd/service/logs"
	"github.com/schmitthub/rdsharness/internal/cmd/service/port"
	"github.com/schmitthub/rdsharness/internal/cmd/service/rm"
	"github.com/schmitthub/rdsharness/internal/cmd/service/up"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdService creates the service command.
// This is a parent command that groups service-related subcommands.
func NewCmdService(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Drive individual compose operations",
		Long: `Drive individual compose operations against the deployment.

Each subcommand performs exactly one operation. SERVICE defaults to the
services.main entry of the configuration.`,
		Example: `  # Start the main service and wait until it accepts connections
  rdsharness service up --wait

  # Take a backup by hand
  rdsharness service exec rds-test1 -- /rds/bin/backup.sh

  # Tear everything down including the data and backup volumes
  rdsharness service down --volumes`,
	}

	cmd.AddCommand(up.NewCmdUp(f, nil))
	cmd.AddCommand(kill.NewCmdKill(f, nil))
	cmd.AddCommand(rm.NewCmdRm(f, nil))
	cmd.AddCommand(exec.NewCmdExec(f, nil))
	cmd.AddCommand(logs.NewCmdLogs(f, nil))
	cmd.AddCommand(port.NewCmdPort(f, nil))
	cmd.AddCommand(down.NewCmdDown(f, nil))

	return cmd
}
