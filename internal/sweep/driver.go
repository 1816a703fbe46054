package sweep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/metrics"
	"github.com/beholders/benchsweep/internal/monitoring"
)

// Sink records one result row. Rows arrive in grid order.
type Sink interface {
	Write(r metrics.RunResult) error
}

// Options is the resolved, immutable description of one sweep.
type Options struct {
	Grid             Grid
	Layout           Layout
	State            SweepMode
	MinFractionBytes int64
}

// Summary counts what the driver did.
type Summary struct {
	Executed int
	Skipped  int
	Failed   int
}

// Driver walks the grid.
type Driver struct {
	Options  Options
	FS       fsutil.FileSystem
	Executor *Executor
	Guard    *Guard
	Parser   metrics.Parser
	Sink     Sink
	Throttle *Throttle
}

// Run executes every grid point in order. It stops at the first interrupted
// run, returning an error wrapping ErrInterrupted, or at the first error
// that would make further rows untrustworthy. Failed engine runs are
// recorded and do not stop the sweep.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	grid := d.Options.Grid
	layout := d.Options.Layout
	total := grid.Len()

	// Fractional payloads derived so far, removed after their last run or
	// on the way out.
	live := make(map[string]RunConfiguration)
	defer func() {
		for _, cfg := range live {
			d.removeFractionFiles(cfg)
		}
	}()

	for i, cfg := range grid.All() {
		artifact := layout.Artifact(cfg)
		lastUse := i == total-1 || !sameFraction(cfg, grid.At(i+1))

		if d.Options.State == SweepContinue && d.FS.Exists(artifact) {
			sum.Skipped++
			monitoring.Logf("[%d/%d] %s: %s exists, skipping", i+1, total, cfg, filepath.Base(artifact))
			if lastUse {
				d.release(live, cfg)
			}
			continue
		}

		if err := d.prepareFraction(live, cfg); err != nil {
			return sum, err
		}

		monitoring.Logf("[%d/%d] %s: %s payload", i+1, total, cfg, humanize.IBytes(uint64(cfg.PayloadBytes())))
		guard, runCtx := d.Guard.Enter(ctx, artifact)
		ex, err := d.Executor.Execute(runCtx, cfg)
		if gerr := guard.Exit(); gerr != nil {
			return sum, gerr
		}
		if err != nil {
			return sum, fmt.Errorf("%s: %w", cfg, err)
		}
		sum.Executed++

		if ex.ExitCode != 0 {
			sum.Failed++
			monitoring.Errorf("%s: engine exited with status %d after %s; log kept at %s",
				cfg, ex.ExitCode, ex.Duration, layout.FailedArtifact(cfg))
		} else {
			monitoring.Logf("%s: done in %s", cfg, ex.Duration)
		}

		res := d.Parser.Parse(ex.Output, ex.ExitCode, d.known(cfg))
		if err := d.Sink.Write(res); err != nil {
			return sum, fmt.Errorf("record result for %s: %w", cfg, err)
		}

		if lastUse {
			d.release(live, cfg)
		}
		if i+1 < total {
			if err := d.Throttle.Pause(ctx, cfg, grid.At(i+1)); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}

func (d *Driver) known(cfg RunConfiguration) metrics.Known {
	layout := d.Options.Layout
	return metrics.Known{
		Run:        filepath.Base(layout.Artifact(cfg)),
		FileSize:   cfg.PayloadBytes(),
		ChunkCount: cfg.ChunkCount(),
		Axis:       layout.Kind.AxisLabel(cfg),
		Fraction:   cfg.FractionLabel(),
		SecretKey:  layout.Key(cfg.Mode),
	}
}

func sameFraction(a, b RunConfiguration) bool {
	return a.SizeKiB == b.SizeKiB && a.fraction() == b.fraction()
}

func (d *Driver) prepareFraction(live map[string]RunConfiguration, cfg RunConfiguration) error {
	if cfg.fraction() == 1 {
		return nil
	}
	layout := d.Options.Layout
	dest := layout.Payload(cfg)
	if _, ok := live[dest]; ok {
		return nil
	}
	n, err := FractionLength(cfg.MasterBytes(), cfg.Fraction, d.Options.MinFractionBytes)
	if err != nil {
		return &ConfigurationError{Msg: err.Error()}
	}
	if err := DeriveFraction(d.FS, layout.MasterPayload(cfg.SizeKiB), dest, n); err != nil {
		return fmt.Errorf("%s: %w", cfg, err)
	}
	live[dest] = cfg
	return nil
}

func (d *Driver) release(live map[string]RunConfiguration, cfg RunConfiguration) {
	dest := d.Options.Layout.Payload(cfg)
	if _, ok := live[dest]; !ok {
		return
	}
	delete(live, dest)
	d.removeFractionFiles(cfg)
}

func (d *Driver) removeFractionFiles(cfg RunConfiguration) {
	for _, p := range d.Options.Layout.FractionFiles(cfg) {
		if err := d.FS.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			monitoring.Warnf("remove fractional payload file %s: %v", p, err)
		}
	}
}
