package model

// CandidateKey identifies one candidate of one input. It is the primary key of a Tableau.
type CandidateKey struct {
	Input     string `json:"input" yaml:"input"`
	Candidate string `json:"candidate" yaml:"candidate"`
}

// CandidateRecord holds everything the tableau says about a single candidate
type CandidateRecord struct {
	Winner     bool           `json:"winner" yaml:"winner"`
	Violations map[string]int `json:"violations" yaml:"violations"` // One entry per constraint, never negative
	Frequency  string         `json:"frequency" yaml:"frequency"`   // Raw marker text, "0" when blank
}

// Tableau is a parsed OT-Soft tableau.
//
// Keys preserves first-insertion order. Overwriting an existing key replaces its
// record but keeps its position. A Tableau is not modified after parsing, so it
// may be read from several goroutines.
type Tableau struct {
	Constraints []string
	keys        []CandidateKey
	records     map[CandidateKey]*CandidateRecord
}

// NewTableau creates an empty tableau for the given constraint sequence
func NewTableau(constraints []string) *Tableau {
	return &Tableau{
		Constraints: constraints,
		records:     make(map[CandidateKey]*CandidateRecord),
	}
}

// Put stores a record under key. A later Put for the same key wins.
func (t *Tableau) Put(key CandidateKey, rec *CandidateRecord) {
	if _, exists := t.records[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.records[key] = rec
}

// Get returns the record stored for key
func (t *Tableau) Get(key CandidateKey) (*CandidateRecord, bool) {
	rec, ok := t.records[key]
	return rec, ok
}

// Keys returns all candidate keys in table order
func (t *Tableau) Keys() []CandidateKey {
	out := make([]CandidateKey, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of distinct (input, candidate) entries
func (t *Tableau) Len() int {
	return len(t.keys)
}

// Inputs returns the distinct input labels in first-seen order of the keys
func (t *Tableau) Inputs() []string {
	seen := make(map[string]bool)
	var inputs []string
	for _, k := range t.keys {
		if !seen[k.Input] {
			seen[k.Input] = true
			inputs = append(inputs, k.Input)
		}
	}
	return inputs
}

// CandidatesOf returns the keys belonging to input, in table order
func (t *Tableau) CandidatesOf(input string) []CandidateKey {
	var out []CandidateKey
	for _, k := range t.keys {
		if k.Input == input {
			out = append(out, k)
		}
	}
	return out
}

// ViolationVector returns the violation counts of key in constraint order
func (t *Tableau) ViolationVector(key CandidateKey) []int {
	rec, ok := t.records[key]
	if !ok {
		return nil
	}
	vec := make([]int, len(t.Constraints))
	for i, c := range t.Constraints {
		vec[i] = rec.Violations[c]
	}
	return vec
}
