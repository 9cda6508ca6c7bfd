package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sdejongh/textnorris/internal/platform"
	"github.com/sdejongh/textnorris/pkg/config"
	"github.com/sdejongh/textnorris/pkg/filter"
	"github.com/sdejongh/textnorris/pkg/logging"
	"github.com/sdejongh/textnorris/pkg/models"
	"github.com/spf13/cobra"
)

// requireDir accepts exactly one positional argument and prints the usage
// when it is missing
func requireDir(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		cmd.Usage()
		return fmt.Errorf("expected exactly one working directory, got %d arguments", len(args))
	}
	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	return config.Load(globalFlags.ConfigFile)
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	// Extensions and ignore patterns accumulate
	cfg.Normalize.Extensions = append(cfg.Normalize.Extensions, normalizeFlags.Extensions...)
	cfg.Normalize.Ignore = append(cfg.Normalize.Ignore, normalizeFlags.Ignore...)

	if normalizeFlags.DryRun {
		cfg.Normalize.DryRun = true
	}
	if normalizeFlags.Verify {
		cfg.Normalize.Verify = true
	}
	if normalizeFlags.IOLimit != "" {
		cfg.Normalize.IOLimit = normalizeFlags.IOLimit
	}

	// Output format
	if normalizeFlags.Output != "" {
		cfg.Output.Format = normalizeFlags.Output
	} else if cfg.Output.Progress && cfg.Output.Format == "human" {
		cfg.Output.Format = "progress"
	}

	if normalizeFlags.NoColor {
		cfg.Output.Color = "never"
	}

	// Quiet wins over verbose
	if globalFlags.Quiet {
		cfg.Output.Quiet = true
	}

	// Logging
	if normalizeFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = normalizeFlags.LogFile
	}
	if cmd.Flags().Changed("log-format") || cfg.Logging.Format == "" {
		cfg.Logging.Format = normalizeFlags.LogFormat
	}
	if cmd.Flags().Changed("log-level") || cfg.Logging.Level == "" {
		cfg.Logging.Level = normalizeFlags.LogLevel
	}
}

// createRunOperation creates a run operation from configuration
func createRunOperation(root string, flt *filter.Filter, cfg *config.Config) (*models.RunOperation, error) {
	operation := &models.RunOperation{
		ID:        uuid.New().String(),
		RootPath:  root,
		Filter:    flt.Config(),
		DryRun:    cfg.Normalize.DryRun,
		Verbose:   globalFlags.Verbose && !cfg.Output.Quiet,
		CreatedAt: time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}

// resolveRoot turns the positional argument into an absolute directory
func resolveRoot(arg string) (string, error) {
	root, err := platform.ResolveDir(arg)
	if err != nil {
		return "", fmt.Errorf("cannot use working directory: %w", err)
	}
	return root, nil
}

// createLogger creates a logger based on configuration
func createLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	// Without a log file there is nothing to write to
	if !cfg.Enabled || cfg.File == "" {
		return logging.NewNullLogger(), nil
	}

	// Create file logger
	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     logging.ParseFormat(cfg.Format),
		Level:      logging.ParseLevel(cfg.Level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
