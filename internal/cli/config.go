package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/sdejongh/textnorris/pkg/config"
	"github.com/sdejongh/textnorris/pkg/filter"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the textnorris configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			flt, err := filter.New(cfg.Normalize.Extensions, cfg.Normalize.Ignore)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Extensions: %s\n", flt.Describe())
			fmt.Fprintf(out, "Ignore: %s\n", strings.Join(flt.IgnorePatterns(), " "))
			fmt.Fprintf(out, "Dry Run: %v\n", cfg.Normalize.DryRun)
			fmt.Fprintf(out, "Verify: %v\n", cfg.Normalize.Verify)
			if cfg.Normalize.IOLimit != "" {
				fmt.Fprintf(out, "Read Limit: %s/s\n", cfg.Normalize.IOLimit)
			}
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Color: %s\n", cfg.Output.Color)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)
			if cfg.Logging.Enabled {
				fmt.Fprintf(out, "Log File: %s\n", cfg.Logging.File)
			}

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
				}
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
