package emit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/otpraat/internal/model"
)

// printer stops writing after the first error and remembers it
type printer struct {
	w   *bufio.Writer
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: bufio.NewWriter(w)}
}

func (p *printer) printf(format string, a ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func (p *printer) flush() error {
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}

// quote renders s as a Praat text-file string literal
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteGrammar writes t as an "OTGrammar 2" text file. Every constraint gets
// the same ranking parameters; tableaus follow first-seen input order.
func WriteGrammar(w io.Writer, t *model.Tableau, params model.GrammarConfig) error {
	p := newPrinter(w)

	p.printf("File type = \"ooTextFile\"\n")
	p.printf("Object class = \"OTGrammar 2\"\n")
	p.printf("\n")
	p.printf("decisionStrategy = <OptimalityTheory>\n")
	p.printf("leak = 0\n")
	p.printf("%d constraints\n", len(t.Constraints))

	ranking := formatParam(params.Ranking)
	disharmony := formatParam(params.Disharmony)
	plasticity := formatParam(params.Plasticity)
	for i, c := range t.Constraints {
		p.printf("constraint [%d]: %s %s %s %s\n", i+1, quote(c), ranking, disharmony, plasticity)
	}

	p.printf("\n0 fixed rankings\n\n")

	inputs := t.Inputs()
	p.printf("%d tableaus\n", len(inputs))
	for i, in := range inputs {
		cands := t.CandidatesOf(in)
		p.printf("input [%d]: %s %d\n", i+1, quote(in), len(cands))
		for j, k := range cands {
			p.printf("   candidate [%d]: %s %s\n", j+1, quote(k.Candidate), joinInts(t.ViolationVector(k)))
		}
	}

	return p.flush()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
