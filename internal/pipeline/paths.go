package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/otpraat/internal/model"
)

// ErrUnsupportedExtension is returned for input files without a recognized text extension
var ErrUnsupportedExtension = errors.New("unsupported input file extension")

// Paths holds the input file and the two files derived from it
type Paths struct {
	Input            string `yaml:"input"`
	Grammar          string `yaml:"grammar"`
	PairDistribution string `yaml:"pair_distribution"`
}

// OutputPaths replaces the recognized extension of input with the configured
// output extensions. Extensions match case-insensitively.
func OutputPaths(input string, in model.InputConfig, out model.OutputConfig) (Paths, error) {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)

	for _, allowed := range in.Extensions {
		if ext != "" && strings.EqualFold(ext, allowed) && base != "" && !strings.HasSuffix(base, string(filepath.Separator)) {
			return Paths{
				Input:            input,
				Grammar:          base + out.GrammarExtension,
				PairDistribution: base + out.PairExtension,
			}, nil
		}
	}

	return Paths{}, fmt.Errorf("%w: please make sure your input file ends in %s", ErrUnsupportedExtension, strings.Join(in.Extensions, " or "))
}

// Duplicate names an input dropped because an earlier input writes the same files
type Duplicate struct {
	Path string
	Of   string
}

// DistinctOutputs keeps the first of every group of inputs that derive the same
// output files, such as one path given twice or a.txt next to a.TXT.
// Inputs with an unsupported extension are kept so they fail on their own.
func DistinctOutputs(inputs []string, in model.InputConfig, out model.OutputConfig) ([]string, []Duplicate) {
	kept := make([]string, 0, len(inputs))
	var dups []Duplicate
	owner := make(map[string]string, len(inputs))

	for _, input := range inputs {
		target := input
		if paths, err := OutputPaths(input, in, out); err == nil {
			target = paths.Grammar
		}
		key := filepath.Clean(target)
		if abs, err := filepath.Abs(target); err == nil {
			key = abs
		}

		if first, ok := owner[key]; ok {
			dups = append(dups, Duplicate{Path: input, Of: first})
			continue
		}
		owner[key] = input
		kept = append(kept, input)
	}
	return kept, dups
}
