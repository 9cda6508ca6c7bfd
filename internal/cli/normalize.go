package cli

import (
	"context"
	"fmt"

	"github.com/sdejongh/textnorris/pkg/detect"
	"github.com/sdejongh/textnorris/pkg/filter"
	"github.com/sdejongh/textnorris/pkg/logging"
	"github.com/sdejongh/textnorris/pkg/normalize"
	"github.com/sdejongh/textnorris/pkg/output"
	"github.com/sdejongh/textnorris/pkg/ratelimit"
	"github.com/sdejongh/textnorris/pkg/storage"
	"github.com/sdejongh/textnorris/pkg/transcode"
	"github.com/spf13/cobra"
)

// NewNormalizeCommand creates the normalize command
func NewNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <dir>",
		Short: "Rewrite text files under a directory as UTF-8",
		Long: `Walk a directory tree, detect the encoding of every eligible file and
rewrite it in place as UTF-8 without a byte-order mark. Files that are
already UTF-8 or single-byte safe are left alone.`,
		Args: requireDir,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, args[0], false)
		},
	}

	addNormalizeFlags(cmd)
	cmd.Flags().BoolVar(&normalizeFlags.DryRun, "dry-run", false, "detect and decode only, don't write")

	return cmd
}

// runNormalize drives one run. forceDryRun is set by the check command.
func runNormalize(cmd *cobra.Command, dir string, forceDryRun bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := resolveRoot(dir)
	if err != nil {
		return err
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, cfg)
	if forceDryRun {
		cfg.Normalize.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	readLimit, err := ratelimit.ParseRate(cfg.Normalize.IOLimit)
	if err != nil {
		return err
	}

	flt, err := filter.New(cfg.Normalize.Extensions, cfg.Normalize.Ignore)
	if err != nil {
		return err
	}

	operation, err := createRunOperation(root, flt, cfg)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	backend, err := storage.NewLocal(operation.RootPath)
	if err != nil {
		return fmt.Errorf("failed to open working directory: %w", err)
	}
	defer backend.Close()

	// Create logger
	logger, err := createLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	formatter := output.New(cfg.Output.Format, output.HumanOptions{
		Verbose: operation.Verbose,
		Quiet:   cfg.Output.Quiet,
		Color:   output.ColorMode(cfg.Output.Color),
	})
	if err := formatter.Start(cmd.OutOrStdout(), operation.RootPath, operation.DryRun); err != nil {
		return err
	}

	engine := normalize.NewEngine(
		backend,
		flt,
		normalize.NewDecider(detect.NewChardet(), transcode.New()),
		formatter,
		logger.WithFields(logging.Fields{"operation_id": operation.ID}),
		normalize.Options{
			Root:        operation.RootPath,
			DryRun:      operation.DryRun,
			OperationID: operation.ID,
			ReadLimit:   readLimit,
			Verify:      cfg.Normalize.Verify && !operation.DryRun,
		},
	)

	report, err := engine.Run(ctx)
	if err != nil {
		formatter.Error(err)
		return fmt.Errorf("normalization failed: %w", err)
	}

	if err := formatter.Complete(report); err != nil {
		return err
	}

	if normalizeFlags.Report != "" {
		if err := output.WriteReport(report, normalizeFlags.Report, normalizeFlags.ReportFormat); err != nil {
			return err
		}
	}

	if code := report.Status.ExitCode(); code != 0 {
		return fmt.Errorf("run finished with status %s", report.Status)
	}
	return nil
}
