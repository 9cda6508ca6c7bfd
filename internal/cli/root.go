package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the textnorris command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "textnorris",
		Short: "Normalize text file encodings to UTF-8",
		Long: `textnorris walks a directory tree and rewrites eligible text files as
UTF-8 without a byte-order mark. GB18030/GBK/GB2312 and UTF-16 files are
transcoded, UTF-8 byte-order marks are stripped, and any other detected
encoding is converted on a best-effort basis.`,
		Version:       VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewNormalizeCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
