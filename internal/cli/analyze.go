package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/otpraat/internal/derive"
	"github.com/ppiankov/otpraat/internal/model"
	"github.com/ppiankov/otpraat/internal/pipeline"
)

var (
	analyzeFormat  string
	analyzeSupport bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.txt>",
	Short: "Show which constraints prefer winners or losers",
	Long: `Analyze parses a tableau without writing any file and prints, for every
constraint, the winner/loser pairs it prefers the winner in (W) and the loser
in (L). With --support it also prints, for every ordered pair of candidates of
the same input, the constraints favoring each side.

Example:
  otpraat analyze tableau.txt
  otpraat analyze tableau.txt --support --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "output format (text, yaml)")
	analyzeCmd.Flags().BoolVar(&analyzeSupport, "support", false, "include the pairwise support table")
}

type analysis struct {
	Constraints []string                       `yaml:"constraints"`
	Inputs      int                            `yaml:"inputs"`
	Candidates  int                            `yaml:"candidates"`
	Preferences []*derive.ConstraintPreference `yaml:"preferences"`
	Support     []*derive.SupportEntry         `yaml:"support,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := pipeline.NewPipeline(newFs(), cfg, nil, nil)
	tab, err := p.Load(args[0])
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}

	a := analysis{
		Constraints: tab.Constraints,
		Inputs:      len(tab.Inputs()),
		Candidates:  tab.Len(),
		Preferences: derive.BuildPreferenceIndex(tab).Constraints,
	}
	if analyzeSupport {
		a.Support = derive.BuildSupportTable(tab).Entries
	}

	out := cmd.OutOrStdout()
	switch analyzeFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
		return enc.Close()
	case "text":
		renderAnalysis(out, a)
		return nil
	default:
		return fmt.Errorf("unknown format %q (use text or yaml)", analyzeFormat)
	}
}

func renderAnalysis(w io.Writer, a analysis) {
	fmt.Fprintf(w, "Constraints: %d   Inputs: %d   Candidates: %d\n\n", len(a.Constraints), a.Inputs, a.Candidates)

	for _, cp := range a.Preferences {
		fmt.Fprintf(w, "%s  W:%d  L:%d\n", cp.Constraint, len(cp.WPreferred), len(cp.LPreferred))
		for _, pr := range cp.WPreferred {
			fmt.Fprintf(w, "  W  %s\n", formatPair(pr))
		}
		for _, pr := range cp.LPreferred {
			fmt.Fprintf(w, "  L  %s\n", formatPair(pr))
		}
	}

	if len(a.Support) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSupport:\n")
	for _, e := range a.Support {
		fmt.Fprintf(w, "  %s vs %s: first %v, second %v\n", formatKey(e.First), formatKey(e.Second), e.FavorFirst, e.FavorSecond)
	}
}

func formatKey(k model.CandidateKey) string {
	return fmt.Sprintf("/%s/ [%s]", k.Input, k.Candidate)
}

func formatPair(p derive.Pair) string {
	return fmt.Sprintf("/%s/ [%s] ~ [%s]", p.Winner.Input, p.Winner.Candidate, p.Loser.Candidate)
}
