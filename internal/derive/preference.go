// Package derive builds comparison views over a parsed tableau.
package derive

import "github.com/ppiankov/otpraat/internal/model"

// Pair is a winner/loser comparison between two candidates of the same input
type Pair struct {
	Winner model.CandidateKey `yaml:"winner"`
	Loser  model.CandidateKey `yaml:"loser"`
}

// ConstraintPreference lists the winner/loser pairs a constraint decides
type ConstraintPreference struct {
	Constraint string `yaml:"constraint"`
	WPreferred []Pair `yaml:"w_preferred"` // Winner has strictly fewer violations
	LPreferred []Pair `yaml:"l_preferred"` // Loser has strictly fewer violations
}

// PreferenceIndex holds one ConstraintPreference per constraint, in constraint order
type PreferenceIndex struct {
	Constraints []*ConstraintPreference
	byName      map[string]*ConstraintPreference
}

// Get returns the preferences of the named constraint
func (p *PreferenceIndex) Get(constraint string) (*ConstraintPreference, bool) {
	cp, ok := p.byName[constraint]
	return cp, ok
}

// BuildPreferenceIndex compares every winner with every loser of the same input
func BuildPreferenceIndex(t *model.Tableau) *PreferenceIndex {
	var winners, losers []model.CandidateKey
	for _, k := range t.Keys() {
		rec, _ := t.Get(k)
		if rec.Winner {
			winners = append(winners, k)
		} else {
			losers = append(losers, k)
		}
	}

	idx := &PreferenceIndex{
		Constraints: make([]*ConstraintPreference, 0, len(t.Constraints)),
		byName:      make(map[string]*ConstraintPreference, len(t.Constraints)),
	}

	for _, c := range t.Constraints {
		cp := &ConstraintPreference{Constraint: c}
		seenW := make(map[Pair]bool)
		seenL := make(map[Pair]bool)

		for _, w := range winners {
			wrec, _ := t.Get(w)
			for _, l := range losers {
				if w.Input != l.Input {
					continue
				}
				lrec, _ := t.Get(l)
				pair := Pair{Winner: w, Loser: l}

				switch wv, lv := wrec.Violations[c], lrec.Violations[c]; {
				case wv < lv && !seenW[pair]:
					seenW[pair] = true
					cp.WPreferred = append(cp.WPreferred, pair)
				case lv < wv && !seenL[pair]:
					seenL[pair] = true
					cp.LPreferred = append(cp.LPreferred, pair)
				}
			}
		}

		idx.Constraints = append(idx.Constraints, cp)
		idx.byName[c] = cp
	}

	return idx
}
