package root

import (
	"github.com/schmitthub/rdsharness/internal/cmd/check"
	"github.com/schmitthub/rdsharness/internal/cmd/config"
	"github.com/schmitthub/rdsharness/internal/cmd/scenario"
	"github.com/schmitthub/rdsharness/internal/cmd/service"
	versioncmd "github.com/schmitthub/rdsharness/internal/cmd/version"
	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/schmitthub/rdsharness/internal/logger"
	"github.com/spf13/cobra"
)

// NewCmdRoot creates the root command for the rdsharness CLI.
func NewCmdRoot(f *cmdutil.Factory, buildDate string) *cobra.Command {
	versionInfo := versioncmd.Format(f.Version, f.Commit, buildDate)

	cmd := &cobra.Command{
		Use:   "rdsharness",
		Short: "Exercise a containerized PostgreSQL service end to end",
		Long: `rdsharness drives a docker compose deployment of a PostgreSQL service
through its lifecycle and checks that it behaves: it refuses to start
without an instance id, authenticates the configured user, rejects blank
passwords, keeps data across restarts and restores from backups.

Quick start:
  rdsharness config check     # Validate rdsharness.yaml and the compose file
  rdsharness check --all      # Run every end-to-end check
  rdsharness scenario restart # Drive one lifecycle flow by hand`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations: map[string]string{
			"versionInfo": versionInfo,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initializeLogger(f)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Msg("rdsharness starting")

			return nil
		},
		Version: f.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(&f.ConfigFile, "config", "c", "", "Path to rdsharness.yaml (default ./rdsharness.yaml)")

	// Version template
	cmd.SetVersionTemplate(versionInfo)

	// Register top-level aliases (shortcuts to subcommands)
	registerAliases(cmd, f)

	cmd.AddCommand(check.NewCmdCheck(f, nil))
	cmd.AddCommand(scenario.NewCmdScenario(f, nil))
	cmd.AddCommand(service.NewCmdService(f))
	cmd.AddCommand(config.NewCmdConfig(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f))

	return cmd
}

// initializeLogger sets up the logger with file logging if the configuration
// asks for it. Falls back to console-only logging on any errors.
func initializeLogger(f *cmdutil.Factory) {
	if f.Config == nil {
		logger.Init(f.Debug)
		return
	}

	cfg, err := f.Config()
	if err != nil {
		// Commands report the config error themselves.
		logger.Init(f.Debug)
		logger.Debug().Err(err).Msg("file logging unavailable: failed to load config")
		return
	}

	if err := logger.InitWithFile(f.Debug, cfg.Logging.Dir, cfg.LoggerConfig()); err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
