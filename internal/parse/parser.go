package parse

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ppiankov/otpraat/internal/model"
)

const (
	colInput = iota
	colCandidate
	colMarker
	colFirstViolation
)

// maxLineBytes bounds a single tableau row. Wide tableaux with hundreds of
// constraints stay well below this.
const maxLineBytes = 4 << 20

type line struct {
	num    int // 1-based physical line number
	text   string
	fields []string
}

// ReadFile returns the raw content of the tableau at path
func ReadFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	return data, nil
}

// ParseFile reads and parses the tableau at path
func ParseFile(fs afero.Fs, path string) (*model.Tableau, error) {
	data, err := ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Parse reads an OT-Soft tableau.
//
// The first non-blank line is a title and is ignored, the second holds the
// constraint names, and every further line is a candidate row:
// input, candidate, winner/frequency marker, then one violation count per
// constraint. Rows whose input field starts with "[" are OTHelp markers and
// are skipped.
func Parse(r io.Reader) (*model.Tableau, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &FormatError{Reason: "no content", Err: ErrEmptyFile}
	}
	if len(lines) < 2 {
		return nil, &FormatError{Line: lines[0].num, Content: lines[0].text, Reason: "missing constraint header row", Err: ErrMissingHeader}
	}

	tab := model.NewTableau(headerNames(lines[1].fields))

	currentInput := ""
	for _, ln := range lines[2:] {
		if strings.HasPrefix(ln.fields[colInput], "[") {
			continue
		}

		key, rec, err := parseRow(ln, tab.Constraints, currentInput)
		if err != nil {
			return nil, err
		}
		currentInput = key.Input
		tab.Put(key, rec)
	}

	return tab, nil
}

// readLines decodes r and returns its non-blank lines split on tabs.
// UTF-8 and UTF-16 input with a byte order mark are both accepted, and
// lines may end in \n, \r\n or a lone \r.
func readLines(r io.Reader) ([]line, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLines)

	var lines []line
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, line{
			num:    num,
			text:   text,
			fields: strings.Split(text, "\t"),
		})
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &FormatError{Line: num + 1, Reason: fmt.Sprintf("line longer than %d bytes", maxLineBytes), Err: err}
		}
		return nil, fmt.Errorf("read tableau: %w", err)
	}

	return lines, nil
}

// scanLines is bufio.ScanLines with a lone \r also ending a line
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// \r is the last byte seen; a \n may follow in the next read
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// headerNames keeps the non-empty header fields in order
func headerNames(fields []string) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			names = append(names, f)
		}
	}
	return names
}

// parseRow turns one candidate row into a record. currentInput is the label
// inherited from the closest preceding row that named an input.
func parseRow(ln line, constraints []string, currentInput string) (model.CandidateKey, *model.CandidateRecord, error) {
	if len(ln.fields) <= colMarker {
		return model.CandidateKey{}, nil, &FormatError{
			Line:    ln.num,
			Content: ln.text,
			Reason:  "expected at least input, candidate and marker fields",
		}
	}

	input := ln.fields[colInput]
	if input == "" {
		input = currentInput
	}
	if input == "" {
		return model.CandidateKey{}, nil, &FormatError{
			Line:    ln.num,
			Content: ln.text,
			Reason:  "candidate row appears before any input label",
		}
	}

	cand := ln.fields[colCandidate]
	if cand == "" {
		return model.CandidateKey{}, nil, &FormatError{
			Line:    ln.num,
			Content: ln.text,
			Reason:  "empty candidate label",
		}
	}

	marker := ln.fields[colMarker]
	freq := marker
	if freq == "" {
		freq = "0"
	}

	violations := make(map[string]int, len(constraints))
	for i, c := range constraints {
		raw := ""
		if col := colFirstViolation + i; col < len(ln.fields) {
			raw = ln.fields[col]
		}
		n, err := parseCount(raw)
		if err != nil {
			return model.CandidateKey{}, nil, &FormatError{
				Line:    ln.num,
				Content: ln.text,
				Reason:  fmt.Sprintf("violation count %q for constraint %q is not a valid integer", raw, c),
				Err:     err,
			}
		}
		violations[c] = n
	}

	key := model.CandidateKey{Input: input, Candidate: cand}
	rec := &model.CandidateRecord{
		Winner:     marker == "1",
		Violations: violations,
		Frequency:  freq,
	}
	return key, rec, nil
}

// parseCount reads a violation count as its absolute value. Blank is zero.
func parseCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n == math.MinInt {
		// -MinInt does not fit in an int
		return 0, &strconv.NumError{Func: "Atoi", Num: s, Err: strconv.ErrRange}
	}
	if n < 0 {
		n = -n
	}
	return n, nil
}
