package parse

import (
	"errors"
	"fmt"
)

// FormatHelp points users at the document describing the expected input layout
const FormatHelp = "please make sure your file is in plain text format and is correctly formatted. " +
	"See the OTHelp manual, https://people.umass.edu/othelp/OTHelp.pdf, section 3"

var (
	// ErrEmptyFile is returned when the input contains no non-blank line
	ErrEmptyFile = errors.New("tableau file is empty")
	// ErrMissingHeader is returned when there is no constraint-name row
	ErrMissingHeader = errors.New("tableau file has no constraint header row")
)

// FileAccessError reports an input file that could not be opened or read
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read %s: %v\n%s", e.Path, e.Err, FormatHelp)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// FormatError reports a structurally malformed tableau row.
// Line is the 1-based line number in the source file.
type FormatError struct {
	Line    int
	Content string
	Reason  string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed tableau: %s", e.Reason)
	}
	return fmt.Sprintf("malformed tableau at line %d: %s\n  %q", e.Line, e.Reason, e.Content)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
