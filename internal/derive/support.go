package derive

import "github.com/ppiankov/otpraat/internal/model"

// SupportEntry records which constraints favor each side of an ordered candidate pair
type SupportEntry struct {
	First       model.CandidateKey `yaml:"first"`
	Second      model.CandidateKey `yaml:"second"`
	FavorFirst  []string           `yaml:"favor_first"`
	FavorSecond []string           `yaml:"favor_second"`
}

type orderedPair struct {
	first, second model.CandidateKey
}

// SupportTable covers every ordered pair of distinct candidates sharing an input
type SupportTable struct {
	Entries []*SupportEntry
	byPair  map[orderedPair]*SupportEntry
}

// Get returns the entry for the ordered pair (first, second)
func (s *SupportTable) Get(first, second model.CandidateKey) (*SupportEntry, bool) {
	e, ok := s.byPair[orderedPair{first, second}]
	return e, ok
}

// BuildSupportTable compares both orderings of every same-input candidate pair.
// Entries follow table order of the first candidate, then of the second.
func BuildSupportTable(t *model.Tableau) *SupportTable {
	keys := t.Keys()
	st := &SupportTable{byPair: make(map[orderedPair]*SupportEntry)}

	for i, a := range keys {
		arec, _ := t.Get(a)
		for j, b := range keys {
			if i == j || a.Input != b.Input {
				continue
			}
			brec, _ := t.Get(b)

			e := &SupportEntry{First: a, Second: b}
			for _, c := range t.Constraints {
				av, bv := arec.Violations[c], brec.Violations[c]
				if av < bv {
					e.FavorFirst = append(e.FavorFirst, c)
				} else if bv < av {
					e.FavorSecond = append(e.FavorSecond, c)
				}
			}

			st.Entries = append(st.Entries, e)
			st.byPair[orderedPair{a, b}] = e
		}
	}

	return st
}
