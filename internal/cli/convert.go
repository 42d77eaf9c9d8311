package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/otpraat/internal/emit"
	"github.com/ppiankov/otpraat/internal/logging"
	"github.com/ppiankov/otpraat/internal/model"
	"github.com/ppiankov/otpraat/internal/pipeline"
	"github.com/ppiankov/otpraat/internal/prompt"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <file.txt>",
	Short: "Convert one tableau into .OTGrammar and .PairDistribution files",
	Long: `Convert reads an OT-Soft tableau and writes the Praat files next to it,
replacing the .txt extension:

  tableau.txt -> tableau.OTGrammar, tableau.PairDistribution

When an output file already exists you are asked before it is replaced.
Use --overwrite always or --overwrite never for scripts.

Example:
  otpraat convert tableau.txt
  otpraat convert tableau.txt --overwrite always`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

// newPromptResolver returns the resolver used in prompt mode
var newPromptResolver = func() pipeline.ConflictResolver { return prompt.NewConfirmer() }

// resolverFor maps an overwrite mode to the resolver the pipeline consults
func resolverFor(mode string) (pipeline.ConflictResolver, error) {
	switch mode {
	case model.OverwriteAlways:
		return pipeline.StaticResolver(emit.Overwrite), nil
	case model.OverwriteNever:
		return pipeline.StaticResolver(emit.Abort), nil
	case model.OverwritePrompt:
		return newPromptResolver(), nil
	default:
		return nil, fmt.Errorf("unknown overwrite mode %q", mode)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	stderr := cmd.ErrOrStderr()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logging.New(stderr, cfg.Log.Verbose, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	resolver, err := resolverFor(cfg.Output.Overwrite)
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(newFs(), cfg, resolver, log)

	result, err := p.Convert(cmd.Context(), input)
	if err != nil {
		var conflict *emit.OutputConflictError
		if errors.As(err, &conflict) && cfg.Output.Overwrite == model.OverwritePrompt {
			// The user declined; nothing after the declined file was written
			fmt.Fprintln(stderr, "exiting")
			return nil
		}
		return fmt.Errorf("convert %s: %w", input, err)
	}

	fmt.Fprintf(stderr, "✓ Done writing %s\n", result.Paths.Grammar)
	fmt.Fprintf(stderr, "✓ Done writing %s\n", result.Paths.PairDistribution)
	if cfg.Log.Verbose {
		fmt.Fprintf(stderr, "  Constraints: %d\n", len(result.Tableau.Constraints))
		fmt.Fprintf(stderr, "  Tableaus:    %d\n", len(result.Tableau.Inputs()))
		fmt.Fprintf(stderr, "  Pairs:       %d\n", result.Tableau.Len())
	}

	return nil
}
