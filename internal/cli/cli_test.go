package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/otpraat/internal/emit"
	"github.com/ppiankov/otpraat/internal/pipeline"
	"github.com/ppiankov/otpraat/internal/prompt"
)

const sample = "title\n" +
	"\tCons1\tCons2\n" +
	"in1\tcandA\t1\t0\t1\n" +
	"\tcandB\t0\t1\t0\n" +
	"in2\tcandC\t1\t\t2\n"

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	orig := newFs
	newFs = func() afero.Fs { return fs }
	t.Cleanup(func() { newFs = orig })

	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func sampleFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/w/tab.txt", []byte(sample), 0o644))
	return fs
}

func TestConvert(t *testing.T) {
	fs := sampleFs(t)

	_, stderr, err := execute(t, fs, "convert", "/w/tab.txt")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Done writing /w/tab.OTGrammar")
	assert.Contains(t, stderr, "Done writing /w/tab.PairDistribution")

	grammar, err := afero.ReadFile(fs, "/w/tab.OTGrammar")
	require.NoError(t, err)
	assert.Contains(t, string(grammar), "2 tableaus\n")

	pairs, err := afero.ReadFile(fs, "/w/tab.PairDistribution")
	require.NoError(t, err)
	assert.Contains(t, string(pairs), "3 pairs\n")
}

func TestConvert_OverwriteModes(t *testing.T) {
	fs := sampleFs(t)
	require.NoError(t, afero.WriteFile(fs, "/w/tab.OTGrammar", []byte("old"), 0o644))

	_, _, err := execute(t, fs, "convert", "/w/tab.txt", "--overwrite", "never")
	var conflict *emit.OutputConflictError
	require.ErrorAs(t, err, &conflict)

	// Tests never run on a terminal, so prompting is impossible
	_, _, err = execute(t, fs, "convert", "/w/tab.txt")
	require.ErrorIs(t, err, prompt.ErrNotInteractive)

	_, _, err = execute(t, fs, "convert", "/w/tab.txt", "--overwrite", "always")
	require.NoError(t, err)
	grammar, _ := afero.ReadFile(fs, "/w/tab.OTGrammar")
	assert.NotEqual(t, "old", string(grammar))
}

// answeringResolver replies to prompts with fixed answers and records the asked paths
type answeringResolver struct {
	answer emit.OverwritePolicy
	asked  []string
}

func (r *answeringResolver) Resolve(path string) (emit.OverwritePolicy, error) {
	r.asked = append(r.asked, path)
	return r.answer, nil
}

func withPromptAnswer(t *testing.T, answer emit.OverwritePolicy) *answeringResolver {
	t.Helper()
	r := &answeringResolver{answer: answer}
	orig := newPromptResolver
	newPromptResolver = func() pipeline.ConflictResolver { return r }
	t.Cleanup(func() { newPromptResolver = orig })
	return r
}

func TestConvert_PromptDeclined(t *testing.T) {
	fs := sampleFs(t)
	require.NoError(t, afero.WriteFile(fs, "/w/tab.OTGrammar", []byte("old"), 0o644))
	r := withPromptAnswer(t, emit.Abort)

	_, stderr, err := execute(t, fs, "convert", "/w/tab.txt")
	require.NoError(t, err)
	assert.Contains(t, stderr, "exiting")
	assert.NotContains(t, stderr, "Done writing")
	assert.Equal(t, []string{"/w/tab.OTGrammar"}, r.asked)

	grammar, _ := afero.ReadFile(fs, "/w/tab.OTGrammar")
	assert.Equal(t, "old", string(grammar))
	exists, _ := afero.Exists(fs, "/w/tab.PairDistribution")
	assert.False(t, exists, "no file is written after a declined prompt")
}

func TestConvert_PromptDeclinedForPairFile(t *testing.T) {
	fs := sampleFs(t)
	require.NoError(t, afero.WriteFile(fs, "/w/tab.PairDistribution", []byte("old"), 0o644))
	withPromptAnswer(t, emit.Abort)

	_, stderr, err := execute(t, fs, "convert", "/w/tab.txt")
	require.NoError(t, err)
	assert.Contains(t, stderr, "exiting")

	// The grammar file comes first and had no conflict
	exists, _ := afero.Exists(fs, "/w/tab.OTGrammar")
	assert.True(t, exists)
	pairs, _ := afero.ReadFile(fs, "/w/tab.PairDistribution")
	assert.Equal(t, "old", string(pairs))
}

func TestConvert_PromptAccepted(t *testing.T) {
	fs := sampleFs(t)
	require.NoError(t, afero.WriteFile(fs, "/w/tab.OTGrammar", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/w/tab.PairDistribution", []byte("old"), 0o644))
	r := withPromptAnswer(t, emit.Overwrite)

	_, stderr, err := execute(t, fs, "convert", "/w/tab.txt")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Done writing /w/tab.PairDistribution")
	assert.Equal(t, []string{"/w/tab.OTGrammar", "/w/tab.PairDistribution"}, r.asked)

	pairs, _ := afero.ReadFile(fs, "/w/tab.PairDistribution")
	assert.Contains(t, string(pairs), "3 pairs\n")
}

func TestConvert_InvalidInput(t *testing.T) {
	fs := sampleFs(t)

	_, _, err := execute(t, fs, "convert", "/w/tab.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ends in .txt")

	_, _, err = execute(t, fs, "convert", "/w/missing.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTHelp")

	_, _, err = execute(t, fs, "convert", "/w/tab.txt", "--overwrite", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestAnalyze_Text(t *testing.T) {
	stdout, _, err := execute(t, sampleFs(t), "analyze", "/w/tab.txt", "--support")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Constraints: 2   Inputs: 2   Candidates: 3")
	assert.Contains(t, stdout, "Cons1  W:1  L:0\n  W  /in1/ [candA] ~ [candB]\n")
	assert.Contains(t, stdout, "Cons2  W:0  L:1\n  L  /in1/ [candA] ~ [candB]\n")
	assert.Contains(t, stdout, "/in1/ [candA] vs /in1/ [candB]: first [Cons1], second [Cons2]")
}

func TestAnalyze_YAML(t *testing.T) {
	stdout, _, err := execute(t, sampleFs(t), "analyze", "/w/tab.txt", "--format", "yaml")
	require.NoError(t, err)

	var doc struct {
		Constraints []string `yaml:"constraints"`
		Candidates  int      `yaml:"candidates"`
		Preferences []struct {
			Constraint string `yaml:"constraint"`
		} `yaml:"preferences"`
		Support []interface{} `yaml:"support"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, []string{"Cons1", "Cons2"}, doc.Constraints)
	assert.Equal(t, 3, doc.Candidates)
	assert.Len(t, doc.Preferences, 2)
	assert.Empty(t, doc.Support)
}

func TestBatch(t *testing.T) {
	fs := sampleFs(t)
	require.NoError(t, afero.WriteFile(fs, "/w/other.txt", []byte(sample), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/w/list", []byte("/w/other.txt\n"), 0o644))

	_, stderr, err := execute(t, fs, "batch", "/w/tab.txt", "--list", "/w/list", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Success:   2")

	for _, out := range []string{"/w/tab.OTGrammar", "/w/other.PairDistribution"} {
		exists, _ := afero.Exists(fs, out)
		assert.True(t, exists, out)
	}

	// Prompt mode falls back to never in batch runs
	_, stderr, err = execute(t, fs, "batch", "/w/tab.txt")
	require.Error(t, err)
	assert.Contains(t, stderr, "already exists")
}

func TestBatch_CollidingInputs(t *testing.T) {
	fs := sampleFs(t)
	require.NoError(t, afero.WriteFile(fs, "/w/tab.TXT", []byte("t\n\tOther\nx\ty\t1\t1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/w/list", []byte("/w/tab.txt\n/w/tab.TXT\n"), 0o644))

	_, stderr, err := execute(t, fs, "batch", "/w/tab.txt", "--list", "/w/list", "--overwrite", "never")
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipping /w/tab.txt: writes the same files as /w/tab.txt")
	assert.Contains(t, stderr, "skipping /w/tab.TXT: writes the same files as /w/tab.txt")
	assert.Contains(t, stderr, "Files:      1")
	assert.Contains(t, stderr, "Success:   1")

	grammar, err := afero.ReadFile(fs, "/w/tab.OTGrammar")
	require.NoError(t, err)
	assert.Contains(t, string(grammar), "Cons1")
}

func TestConfigShowAndInit(t *testing.T) {
	fs := afero.NewMemMapFs()

	stdout, _, err := execute(t, fs, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "overwrite: prompt")
	assert.Contains(t, stdout, "grammar_extension: .OTGrammar")

	stdout, _, err = execute(t, fs, "config", "init", "--config", "/cfg/config.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created default configuration")

	data, err := afero.ReadFile(fs, "/cfg/config.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "pair_extension: .PairDistribution")

	_, _, err = execute(t, fs, "config", "init", "--config", "/cfg/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, afero.NewMemMapFs(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "otpraat v")
}
