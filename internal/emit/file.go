// Package emit serializes a parsed tableau into Praat's OTGrammar and
// PairDistribution text formats.
package emit

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// OverwritePolicy decides what happens when an output file already exists
type OverwritePolicy int

const (
	// Abort leaves an existing file untouched and fails with OutputConflictError
	Abort OverwritePolicy = iota
	// Overwrite replaces an existing file
	Overwrite
)

func (p OverwritePolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Overwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("OverwritePolicy(%d)", int(p))
	}
}

// OutputConflictError is returned when the target exists and the policy is Abort
type OutputConflictError struct {
	Path string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("output file %s already exists", e.Path)
}

// FileMode is the permission set given to newly created output files
const FileMode os.FileMode = 0o644

// Render writes one complete output document to w
type Render func(w io.Writer) error

// WriteFile renders into a temporary file next to path and renames it into
// place once everything was written. The target is never left half-written.
// A replaced file keeps its permissions; a new one gets FileMode.
func WriteFile(fs afero.Fs, path string, policy OverwritePolicy, render Render) (err error) {
	mode := FileMode
	info, err := fs.Stat(path)
	switch {
	case err == nil:
		if policy != Overwrite {
			return &OutputConflictError{Path: path}
		}
		mode = info.Mode().Perm()
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if err := render(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	// Temp files are created owner-only
	if err := fs.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmpName, path, err)
	}

	return nil
}
