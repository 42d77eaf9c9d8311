package emit

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/otpraat/internal/model"
	"github.com/ppiankov/otpraat/internal/parse"
)

const sample = "title\n" +
	"\tCons1\tCons2\n" +
	"in1\tcandA\t1\t0\t1\n" +
	"\tcandB\t0\t1\t0\n" +
	"in2\tcandC\t1\t\t2\n"

func sampleTableau(t *testing.T) *model.Tableau {
	t.Helper()
	tab, err := parse.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return tab
}

func TestWriteGrammar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGrammar(&buf, sampleTableau(t), model.DefaultConfig().Grammar))

	expected := `File type = "ooTextFile"
Object class = "OTGrammar 2"

decisionStrategy = <OptimalityTheory>
leak = 0
2 constraints
constraint [1]: "Cons1" 100 100 1
constraint [2]: "Cons2" 100 100 1

0 fixed rankings

2 tableaus
input [1]: "in1" 2
   candidate [1]: "candA" 0 1
   candidate [2]: "candB" 1 0
input [2]: "in2" 1
   candidate [1]: "candC" 0 2
`
	assert.Equal(t, expected, buf.String())
}

func TestWriteGrammar_CustomParams(t *testing.T) {
	var buf bytes.Buffer
	params := model.GrammarConfig{Ranking: 90.5, Disharmony: 80, Plasticity: 0.1}
	require.NoError(t, WriteGrammar(&buf, sampleTableau(t), params))
	assert.Contains(t, buf.String(), "constraint [1]: \"Cons1\" 90.5 80 0.1\n")
}

func TestWriteGrammar_QuotesEscaped(t *testing.T) {
	tab := model.NewTableau([]string{`say "hi"`})
	tab.Put(model.CandidateKey{Input: `a"b`, Candidate: "c"}, &model.CandidateRecord{Violations: map[string]int{`say "hi"`: 3}, Frequency: "0"})

	var buf bytes.Buffer
	require.NoError(t, WriteGrammar(&buf, tab, model.DefaultConfig().Grammar))
	assert.Contains(t, buf.String(), `constraint [1]: "say ""hi""" 100 100 1`)
	assert.Contains(t, buf.String(), `input [1]: "a""b" 1`)
	assert.Contains(t, buf.String(), `   candidate [1]: "c" 3`)
}

// Every candidate line lists exactly one count per constraint, matching the source row.
func TestWriteGrammar_RoundTripVectors(t *testing.T) {
	src := "t\n\t\t\tA\tB\tC\n" +
		"x\tx1\t1\t3\t0\t2\n" +
		"\tx2\t\t-1\t4\t\n" +
		"y\ty1\t1\t0\t0\t7\n"
	tab, err := parse.Parse(strings.NewReader(src))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteGrammar(&buf, tab, model.DefaultConfig().Grammar))

	var vectors []string
	for _, ln := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(ln, "   candidate [") {
			fields := strings.Fields(ln[strings.LastIndex(ln, `"`)+1:])
			assert.Len(t, fields, 3)
			vectors = append(vectors, strings.Join(fields, " "))
		}
	}
	assert.Equal(t, []string{"3 0 2", "1 4 0", "0 0 7"}, vectors)
}

func TestWritePairDistribution(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePairDistribution(&buf, sampleTableau(t)))

	expected := "\"ooTextFile\"\n" +
		"\"PairDistribution\"\n" +
		"\n" +
		"3 pairs\n" +
		"\n" +
		"\"in1\"\t\"candA\"\t1\n" +
		"\"in1\"\t\"candB\"\t0\n" +
		"\"in2\"\t\"candC\"\t1\n"
	assert.Equal(t, expected, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriters_PropagateErrors(t *testing.T) {
	tab := sampleTableau(t)
	assert.EqualError(t, WriteGrammar(failingWriter{}, tab, model.DefaultConfig().Grammar), "disk full")
	assert.EqualError(t, WritePairDistribution(failingWriter{}, tab), "disk full")
}

func TestWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/out", 0o755))

	err := WriteFile(fs, "/out/a.OTGrammar", Abort, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/out/a.OTGrammar")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assertNoTempFiles(t, fs, "/out")
}

func TestWriteFile_ConflictAbort(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.OTGrammar", []byte("old"), 0o644))

	called := false
	err := WriteFile(fs, "/out/a.OTGrammar", Abort, func(w io.Writer) error {
		called = true
		return nil
	})

	var conflict *OutputConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "/out/a.OTGrammar", conflict.Path)
	assert.False(t, called)

	data, _ := afero.ReadFile(fs, "/out/a.OTGrammar")
	assert.Equal(t, "old", string(data))
}

func TestWriteFile_ConflictOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.OTGrammar", []byte("old"), 0o644))

	err := WriteFile(fs, "/out/a.OTGrammar", Overwrite, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	require.NoError(t, err)

	data, _ := afero.ReadFile(fs, "/out/a.OTGrammar")
	assert.Equal(t, "new", string(data))
}

func TestWriteFile_RenderFailureLeavesTargetAlone(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.OTGrammar", []byte("old"), 0o644))

	err := WriteFile(fs, "/out/a.OTGrammar", Overwrite, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	data, _ := afero.ReadFile(fs, "/out/a.OTGrammar")
	assert.Equal(t, "old", string(data))
	assertNoTempFiles(t, fs, "/out")
}

func TestWriteFile_Permissions(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()
	write := func(path string, policy OverwritePolicy) {
		t.Helper()
		require.NoError(t, WriteFile(fs, path, policy, func(w io.Writer) error {
			_, err := io.WriteString(w, "new")
			return err
		}))
	}

	created := filepath.Join(dir, "new.OTGrammar")
	write(created, Abort)
	info, err := os.Stat(created)
	require.NoError(t, err)
	assert.Equal(t, FileMode, info.Mode().Perm())

	for i, mode := range []os.FileMode{0o644, 0o640} {
		replaced := filepath.Join(dir, "old"+string(rune('a'+i))+".PairDistribution")
		require.NoError(t, os.WriteFile(replaced, []byte("old"), 0o600))
		require.NoError(t, os.Chmod(replaced, mode))

		write(replaced, Overwrite)
		info, err := os.Stat(replaced)
		require.NoError(t, err)
		assert.Equal(t, mode, info.Mode().Perm(), replaced)
	}
	assertNoTempFiles(t, fs, dir)
}

func TestOverwritePolicy_String(t *testing.T) {
	assert.Equal(t, "abort", Abort.String())
	assert.Equal(t, "overwrite", Overwrite.String())
	assert.Equal(t, "OverwritePolicy(7)", OverwritePolicy(7).String())
}

func assertNoTempFiles(t *testing.T, fs afero.Fs, dir string) {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	for _, e := range entries {
		if _, statErr := fs.Stat(dir + "/" + e.Name()); errors.Is(statErr, os.ErrNotExist) {
			continue
		}
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}
