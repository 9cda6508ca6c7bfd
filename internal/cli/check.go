package cli

import (
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <dir>",
		Short: "Report what normalize would do without writing (dry-run)",
		Long: `Detect and decode every eligible file under a directory and report the
action normalize would take. No file is modified. This is equivalent to
normalize --dry-run.`,
		Args: requireDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, args[0], true)
		},
	}

	addNormalizeFlags(cmd)

	return cmd
}
