package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/textnorris/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"verbose output (also list ignored entries)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress non-error output",
	)
}

// NormalizeFlags holds normalize and check command flags
type NormalizeFlags struct {
	Extensions   []string
	Ignore       []string
	DryRun       bool
	Output       string
	NoColor      bool
	Report       string
	ReportFormat string
	Verify       bool
	IOLimit      string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var normalizeFlags NormalizeFlags

// addNormalizeFlags registers the flags shared by normalize and check
func addNormalizeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&normalizeFlags.Extensions, "ext", "e", []string{}, "extra file extensions to normalize (txt is always included)")
	cmd.Flags().StringSliceVarP(&normalizeFlags.Ignore, "ignore", "i", []string{}, "extra regular expressions for names to skip (hidden names and node_modules are always skipped)")
	cmd.Flags().StringVarP(&normalizeFlags.Output, "output", "o", "", "output format: human, json, progress")
	cmd.Flags().BoolVar(&normalizeFlags.NoColor, "no-color", false, "disable coloured output")
	cmd.Flags().StringVar(&normalizeFlags.Report, "report", "", "write a run report to file")
	cmd.Flags().StringVar(&normalizeFlags.ReportFormat, "report-format", "human", "run report format: human, json")
	cmd.Flags().BoolVar(&normalizeFlags.Verify, "verify", false, "read every rewritten file back and compare its hash")
	cmd.Flags().StringVar(&normalizeFlags.IOLimit, "io-limit", "", "read rate limit (e.g., \"10M\", \"512KiB\"), per second")

	// Logging flags
	cmd.Flags().StringVar(&normalizeFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&normalizeFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&normalizeFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
}
