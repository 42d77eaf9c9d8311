package emit

import (
	"io"

	"github.com/ppiankov/otpraat/internal/model"
)

// WritePairDistribution writes one input/candidate/frequency line per table
// entry, in table order. Frequencies are copied verbatim.
func WritePairDistribution(w io.Writer, t *model.Tableau) error {
	p := newPrinter(w)

	p.printf("\"ooTextFile\"\n")
	p.printf("\"PairDistribution\"\n")
	p.printf("\n")
	p.printf("%d pairs\n\n", t.Len())

	for _, k := range t.Keys() {
		rec, _ := t.Get(k)
		p.printf("%s\t%s\t%s\n", quote(k.Input), quote(k.Candidate), rec.Frequency)
	}

	return p.flush()
}
