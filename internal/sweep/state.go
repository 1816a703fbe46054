package sweep

import (
	"fmt"

	"github.com/beholders/benchsweep/internal/fsutil"
)

// SweepMode says how an existing result directory is treated.
type SweepMode int

const (
	// SweepFresh starts in a result directory that did not exist.
	SweepFresh SweepMode = iota
	// SweepOverwrite discards the previous directory.
	SweepOverwrite
	// SweepContinue keeps the previous directory and skips points whose
	// log already exists.
	SweepContinue
)

func (m SweepMode) String() string {
	switch m {
	case SweepFresh:
		return "fresh"
	case SweepOverwrite:
		return "overwrite"
	case SweepContinue:
		return "continue"
	}
	return fmt.Sprintf("SweepMode(%d)", int(m))
}

// ResolveState prepares the result directory and returns the resulting mode.
// The flag combination is checked before anything on disk changes.
func ResolveState(fs fsutil.FileSystem, dir string, overwrite, cont bool) (SweepMode, error) {
	if overwrite && cont {
		return 0, configErrorf("--overwrite and --continue are mutually exclusive")
	}
	if dir == "" {
		return 0, configErrorf("no result directory configured")
	}

	if !fs.Exists(dir) {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("create result directory: %w", err)
		}
		return SweepFresh, nil
	}

	switch {
	case overwrite:
		if err := fs.RemoveAll(dir); err != nil {
			return 0, fmt.Errorf("remove result directory: %w", err)
		}
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("create result directory: %w", err)
		}
		return SweepOverwrite, nil
	case cont:
		return SweepContinue, nil
	}
	return 0, &ResultDirectoryConflictError{Dir: dir}
}
