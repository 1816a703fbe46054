package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/monitoring"
	"github.com/beholders/benchsweep/internal/timeutil"
)

// Runner starts the engine and blocks until it exits. Combined stdout and
// stderr are written to out. A non-zero exit is reported through the exit
// code, not the error; the error is reserved for processes that could not
// be run at all or were cancelled through ctx.
type Runner interface {
	Run(ctx context.Context, name string, args []string, out io.Writer) (exitCode int, err error)
}

// ExecRunner runs the engine with os/exec.
type ExecRunner struct {
	// WaitDelay bounds how long output copying may continue after the
	// child is killed.
	WaitDelay time.Duration
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args []string, out io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = r.WaitDelay

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Execution is the outcome of one engine invocation.
type Execution struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Executor runs one grid point, teeing the engine's output to the console,
// the run log and an in-memory capture.
type Executor struct {
	FS      fsutil.FileSystem
	Layout  Layout
	Runner  Runner
	Console io.Writer
	Clock   timeutil.Clock
}

// Execute runs cfg and blocks until the engine exits. A failed run is not an
// error: its log is moved to the .failed name so that a continued sweep
// retries the point. The returned error is non-nil only when the log cannot
// be created or ctx was cancelled mid-run; in the latter case the partial
// log is left for the caller to remove.
func (e *Executor) Execute(ctx context.Context, cfg RunConfiguration) (Execution, error) {
	artifact := e.Layout.Artifact(cfg)
	log, err := e.FS.Create(artifact)
	if err != nil {
		return Execution{}, fmt.Errorf("create run log: %w", err)
	}

	var capture bytes.Buffer
	// The console goes last: a stalled terminal holds up the engine, but
	// never the bytes the log already has.
	tee := newTee()
	tee.add("log", log)
	tee.add("capture", &capture)
	tee.add("console", e.Console)

	start := e.clock().Now()
	code, runErr := e.runner().Run(ctx, e.Layout.Binary, e.Layout.Args(cfg), tee)
	elapsed := e.clock().Since(start)

	if runErr != nil && ctx.Err() == nil {
		// The engine never started; record why in its log like any other failure.
		fmt.Fprintf(tee, "failed to start %s: %v\n", e.Layout.Binary, runErr)
		code = -1
	}

	if err := log.Sync(); err != nil && !tee.failed("log") {
		monitoring.Warnf("sync run log %s: %v", artifact, err)
	}
	if err := log.Close(); err != nil {
		monitoring.Warnf("close run log %s: %v", artifact, err)
	}

	ex := Execution{ExitCode: code, Output: capture.String(), Duration: elapsed}
	if ctx.Err() != nil {
		return ex, ctx.Err()
	}

	if code != 0 {
		failed := e.Layout.FailedArtifact(cfg)
		if err := e.FS.Rename(artifact, failed); err != nil {
			monitoring.Warnf("keep failed run log: %v", err)
			if err := e.FS.Remove(artifact); err != nil {
				return ex, fmt.Errorf("remove failed run log %s: %w", artifact, err)
			}
		}
	}
	return ex, nil
}

func (e *Executor) runner() Runner {
	if e.Runner == nil {
		return ExecRunner{WaitDelay: 5 * time.Second}
	}
	return e.Runner
}

func (e *Executor) clock() timeutil.Clock {
	if e.Clock == nil {
		return timeutil.RealClock{}
	}
	return e.Clock
}
