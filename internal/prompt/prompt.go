// Package prompt asks the user whether existing output files may be replaced.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	"github.com/ppiankov/otpraat/internal/emit"
)

// ErrNotInteractive is returned when a confirmation is needed but stdin is not a terminal
var ErrNotInteractive = errors.New("cannot ask for confirmation: not an interactive terminal (use --overwrite always|never)")

// Confirmer resolves output conflicts by asking on a terminal
type Confirmer struct {
	in  terminal.FileReader
	out terminal.FileWriter
	err io.Writer

	interactive bool
	notify      func(format string, a ...interface{})
}

// NewConfirmer creates a Confirmer for the process terminal
func NewConfirmer() *Confirmer {
	c := newConfirmer(os.Stdin, os.Stderr, os.Stderr)
	c.interactive = isInteractiveTerminal()
	return c
}

// newConfirmer asks on the given terminal streams, which are assumed interactive
func newConfirmer(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) *Confirmer {
	return &Confirmer{
		in:          in,
		out:         out,
		err:         errOut,
		interactive: true,
		notify: func(format string, a ...interface{}) {
			fmt.Fprintf(errOut, format, a...)
		},
	}
}

// Resolve asks whether path may be overwritten. Declining yields emit.Abort.
func (c *Confirmer) Resolve(path string) (emit.OverwritePolicy, error) {
	if !c.interactive {
		return emit.Abort, ErrNotInteractive
	}

	overwrite := false
	q := &survey.Confirm{
		Message: fmt.Sprintf("File %s exists. Overwrite?", path),
		Default: false,
	}
	if err := survey.AskOne(q, &overwrite, survey.WithStdio(c.in, c.out, c.err)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return emit.Abort, nil
		}
		return emit.Abort, fmt.Errorf("ask confirmation: %w", err)
	}

	if !overwrite {
		return emit.Abort, nil
	}
	c.notify("overwriting your file\n")
	return emit.Overwrite, nil
}

func isInteractiveTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
