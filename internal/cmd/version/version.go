package version

import (
	"fmt"
	"strings"

	"github.com/schmitthub/rdsharness/internal/cmdutil"
	"github.com/spf13/cobra"
)

// NewCmdVersion creates the "version" subcommand.
func NewCmdVersion(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of rdsharness",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(f.IOStreams.Out, cmd.Root().Annotations["versionInfo"])
		},
	}

	return cmd
}

// Format returns the version string for display. commit and buildDate are
// optional.
func Format(version, commit, buildDate string) string {
	version = strings.TrimPrefix(version, "v")
	if version == "" {
		version = "DEV"
	}

	var details []string
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		details = append(details, commit)
	}
	if buildDate != "" {
		details = append(details, buildDate)
	}

	if len(details) == 0 {
		return fmt.Sprintf("rdsharness version %s\n", version)
	}
	return fmt.Sprintf("rdsharness version %s (%s)\n", version, strings.Join(details, ", "))
}
