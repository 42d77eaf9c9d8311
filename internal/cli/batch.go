package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/otpraat/internal/logging"
	"github.com/ppiankov/otpraat/internal/model"
	"github.com/ppiankov/otpraat/internal/pipeline"
	"github.com/ppiankov/otpraat/internal/worker"
)

var (
	listFile     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [file.txt...]",
	Short: "Convert many tableaux in parallel",
	Long: `Batch converts several tableau files concurrently. Paths come from the
arguments and/or a list file (one path per line, # starts a comment).

Batch runs cannot ask questions, so --overwrite must be always or never;
the default prompt mode is treated as never.

Example:
  otpraat batch a.txt b.txt c.txt
  otpraat batch --list tableaux.lst --workers 4 --overwrite always`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&listFile, "list", "", "file listing tableau paths, one per line")
	batchCmd.Flags().Int("workers", model.DefaultConfig().Batch.Workers, "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	_ = viper.BindPFlag("batch.workers", batchCmd.Flags().Lookup("workers"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Output.Overwrite == model.OverwritePrompt {
		cfg.Output.Overwrite = model.OverwriteNever
	}

	log := logging.New(stderr, cfg.Log.Verbose, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	resolver, err := resolverFor(cfg.Output.Overwrite)
	if err != nil {
		return err
	}

	fs := newFs()
	paths := append([]string(nil), args...)
	if listFile != "" {
		listed, err := worker.ReadPathsFromFile(fs, listFile)
		if err != nil {
			return fmt.Errorf("read list %s: %w", listFile, err)
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no tableau files given (pass paths or --list)")
	}

	// Two workers must never write the same output file
	paths, dups := pipeline.DistinctOutputs(paths, cfg.Input, cfg.Output)
	for _, d := range dups {
		fmt.Fprintf(stderr, "⚠ skipping %s: writes the same files as %s\n", d.Path, d.Of)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  otpraat batch conversion\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Files:      %d\n", len(paths))
	fmt.Fprintf(stderr, "  Workers:    %d\n", cfg.Batch.Workers)
	fmt.Fprintf(stderr, "  Overwrite:  %s\n", cfg.Output.Overwrite)
	fmt.Fprintf(stderr, "\n")

	p := pipeline.NewPipeline(fs, cfg, resolver, log)
	processor := worker.NewBatchProcessor(p, cfg.Batch.Workers, log)
	results := processor.ProcessPaths(ctx, paths)

	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}
		fmt.Fprintf(stderr, "✓ %s (%d tableaus, %d pairs)\n", result.Path, len(result.Result.Tableau.Inputs()), result.Result.Tableau.Len())
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", len(results)-failureCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d conversions failed", failureCount, len(results))
	}
	return nil
}
