package sweep

import (
	"context"
	"time"

	"github.com/beholders/benchsweep/internal/timeutil"
)

// Throttle pauses between consecutive runs of the same payload size to let
// the machine cool down.
type Throttle struct {
	Base   time.Duration
	PerMiB time.Duration
	Clock  timeutil.Clock
}

// Duration is the pause after a run of cfg: Base plus PerMiB for every MiB of
// the master payload.
func (t *Throttle) Duration(cfg RunConfiguration) time.Duration {
	return t.Base + time.Duration(float64(t.PerMiB)*float64(cfg.SizeKiB)/1024)
}

// Pause waits before next if it uses the same master size as cfg. The wait
// ends early with ctx's error when ctx is cancelled.
func (t *Throttle) Pause(ctx context.Context, cfg, next RunConfiguration) error {
	if t == nil || next.SizeKiB != cfg.SizeKiB {
		return nil
	}
	d := t.Duration(cfg)
	if d <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	clock := t.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	timer := clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
