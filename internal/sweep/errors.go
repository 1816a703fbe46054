package sweep

import (
	"errors"
	"fmt"
)

// Process exit statuses.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ErrInterrupted is returned when a signal arrives while a run is in flight.
var ErrInterrupted = errors.New("sweep interrupted")

// ConfigurationError reports invalid flags or settings. Nothing has been
// touched on disk when it is returned.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// PreconditionError names the first required input that is missing.
type PreconditionError struct {
	Kind string // "payload", "setup", "secret key", ...
	Path string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("missing %s: %s", e.Kind, e.Path)
}

// ResultDirectoryConflictError is returned when the result directory already
// exists and neither --overwrite nor --continue was given.
type ResultDirectoryConflictError struct {
	Dir string
}

func (e *ResultDirectoryConflictError) Error() string {
	return fmt.Sprintf("result directory %s already exists; rerun with --overwrite to replace it or --continue to resume", e.Dir)
}

// ExitCode maps an error returned by the sweep to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInterrupted):
		return ExitInterrupted
	}
	return ExitFailure
}
