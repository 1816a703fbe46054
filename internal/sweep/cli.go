package sweep

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/beholders/benchsweep/internal/config"
	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/metrics"
	"github.com/beholders/benchsweep/internal/monitoring"
	"github.com/beholders/benchsweep/internal/results"
	"github.com/beholders/benchsweep/internal/timeutil"
	"github.com/beholders/benchsweep/internal/version"
)

// Env is the outside world of a sweep tool. Zero fields fall back to the
// real process environment.
type Env struct {
	Stdout   io.Writer
	Stderr   io.Writer
	FS       fsutil.FileSystem
	Runner   Runner
	Clock    timeutil.Clock
	Notifier Notifier
}

func (e Env) withDefaults() Env {
	if e.FS == nil {
		e.FS = fsutil.OSFileSystem{}
	}
	if e.Clock == nil {
		e.Clock = timeutil.RealClock{}
	}
	if e.Runner == nil {
		e.Runner = ExecRunner{WaitDelay: 5 * time.Second}
	}
	if e.Stdout == nil {
		e.Stdout = io.Discard
	}
	if e.Stderr == nil {
		e.Stderr = io.Discard
	}
	return e
}

// Main runs a sweep tool and returns its exit status.
func Main(ctx context.Context, tool string, kind Kind, args []string, env Env) int {
	env = env.withDefaults()
	cli, err := ParseFlags(tool, kind, args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		return ExitFailure
	}
	if cli.Version {
		fmt.Fprintln(env.Stdout, version.String(tool))
		return ExitOK
	}

	err = Run(ctx, cli, env)
	if err != nil {
		monitoring.Errorf("%s: %v", tool, err)
	}
	return ExitCode(err)
}

// Run validates the configuration, checks preconditions, prepares the
// result directory and walks the grid.
func Run(ctx context.Context, cli *CLI, env Env) error {
	env = env.withDefaults()

	cfg, err := config.LoadOrDefault(cli.ConfigPath)
	if err != nil {
		return &ConfigurationError{Msg: err.Error()}
	}
	if err := cli.Apply(cfg); err != nil {
		return err
	}
	opts := cli.BuildOptions(cfg)
	if err := opts.Grid.Validate(opts.MinFractionBytes); err != nil {
		return err
	}
	if err := CheckPreconditions(env.FS, opts.Layout, opts.Grid); err != nil {
		return err
	}

	state, err := ResolveState(env.FS, opts.Layout.ResultsDir, cli.Overwrite, cli.Continue)
	if err != nil {
		return err
	}
	opts.State = state

	schema := results.PowSchema
	if cli.Kind == KindRole {
		schema = results.RoleSchema
	}
	csvSink, err := results.OpenCSVSink(env.FS, opts.Layout.ResultsFile(), schema)
	if err != nil {
		return err
	}
	defer csvSink.Close()

	var sink Sink = csvSink
	if cli.DBPath != "" {
		store, err := results.OpenStore(cli.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		rec, err := store.BeginSweep(cli.Tool, schema, opts.Layout.ResultsDir, cli.NumIterations, env.Clock.Now())
		if err != nil {
			return err
		}
		monitoring.Logf("recording sweep %s in %s", rec.ID(), cli.DBPath)
		sink = results.Mirror{Primary: csvSink, Secondary: rec}
	}

	executor := &Executor{
		FS:      env.FS,
		Layout:  opts.Layout,
		Runner:  env.Runner,
		Console: env.Stdout,
		Clock:   env.Clock,
	}
	parser := metrics.NewParser(metrics.GrammarV1, metrics.Defaults{
		Sentinel: cfg.GetErrorSentinel(),
		NFisch:   int64(cfg.GetFailureNFisch()),
		M:        int64(cfg.GetFailureMValue()),
	})
	throttle := &Throttle{
		Base:   cfg.GetThrottleBase(),
		PerMiB: cfg.GetThrottlePerMiB(),
		Clock:  env.Clock,
	}
	d := &Driver{
		Options:  opts,
		FS:       env.FS,
		Executor: executor,
		Guard:    &Guard{FS: env.FS, Notifier: env.Notifier},
		Parser:   parser,
		Sink:     sink,
		Throttle: throttle,
	}

	monitoring.Logf("%s: %d runs in %s (%s)", cli.Tool, opts.Grid.Len(), opts.Layout.ResultsDir, state)
	sum, err := d.Run(ctx)
	monitoring.Logf("%s: %d executed, %d failed, %d skipped", cli.Tool, sum.Executed, sum.Failed, sum.Skipped)
	return err
}
