package sweep

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/metrics"
	"github.com/beholders/benchsweep/internal/monitoring"
	"github.com/beholders/benchsweep/internal/results"
	"github.com/beholders/benchsweep/internal/testutil"
	"github.com/beholders/benchsweep/internal/timeutil"
)

// quietLogs mutes the diagnostic logger for the duration of the test and
// returns everything it would have printed.
func quietLogs(t *testing.T) *logCapture {
	t.Helper()
	c := &logCapture{}
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.SetLogger(original) })
	monitoring.SetLogger(c.logf)
	return c
}

type logCapture struct {
	mu    sync.Mutex
	lines []string
}

func (c *logCapture) logf(format string, v ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, fmt.Sprintf(format, v...))
}

func (c *logCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

type call struct {
	Name string
	Args []string
}

// fakeRunner stands in for the engine. By default every run prints the
// sample transcript and succeeds.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	script func(ctx context.Context, n int, args []string, out io.Writer) (int, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string, out io.Writer) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Name: name, Args: append([]string(nil), args...)})
	n := len(f.calls)
	f.mu.Unlock()

	if f.script == nil {
		io.WriteString(out, testutil.SampleTranscript.String())
		return 0, nil
	}
	return f.script(ctx, n, args, out)
}

func (f *fakeRunner) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// fakeNotifier records handler installation and delivers signals on demand.
type fakeNotifier struct {
	mu       sync.Mutex
	chans    []chan<- os.Signal
	notified int
	stopped  int
}

func (n *fakeNotifier) Notify(c chan<- os.Signal, _ ...os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chans = append(n.chans, c)
	n.notified++
}

func (n *fakeNotifier) Stop(c chan<- os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, ch := range n.chans {
		if ch == c {
			n.chans = append(n.chans[:i], n.chans[i+1:]...)
			break
		}
	}
	n.stopped++
}

// Send delivers s to every installed handler. It reports whether anyone was
// listening, which is how tests observe the default disposition.
func (n *fakeNotifier) Send(s os.Signal) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.chans {
		select {
		case c <- s:
		default:
		}
	}
	return len(n.chans) > 0
}

func (n *fakeNotifier) Installed() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.chans)
}

func testLayout(kind Kind) Layout {
	return Layout{
		Kind:       kind,
		Binary:     "bin/beholders",
		DataDir:    "data",
		ResultsDir: "res",
		SecretKey:  "sk.bin",
		PublicKey:  "pk.bin",
	}
}

// seedInputs writes the engine, keys, payloads and setups for sizes. With
// verifier set it also writes commitments and signatures.
func seedInputs(t *testing.T, fs fsutil.FileSystem, layout Layout, sizes []int, verifier bool) {
	t.Helper()
	require.NoError(t, fs.WriteFile(layout.Binary, []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, fs.WriteFile(layout.Key(ModeProver), []byte("sk"), 0600))
	require.NoError(t, fs.WriteFile(layout.Key(ModeVerifier), []byte("pk"), 0644))
	for _, size := range sizes {
		cfg := RunConfiguration{SizeKiB: size, Fraction: 1}
		payload := make([]byte, cfg.MasterBytes())
		for i := range payload {
			payload[i] = byte(i)
		}
		require.NoError(t, fs.WriteFile(layout.MasterPayload(size), payload, 0644))
		require.NoError(t, fs.WriteFile(layout.Setup(cfg.SetupChunks()), []byte("setup"), 0644))
		if verifier {
			require.NoError(t, fs.WriteFile(layout.Commitment(size), []byte("com"), 0644))
			require.NoError(t, fs.WriteFile(layout.Signature(size), []byte("sig"), 0644))
		}
	}
}

type testRig struct {
	fs       *fsutil.MemoryFileSystem
	runner   *fakeRunner
	notifier *fakeNotifier
	clock    *timeutil.MockClock
	console  *strings.Builder
	driver   *Driver
	sink     *results.CSVSink
}

func newRig(t *testing.T, kind Kind, grid Grid, state SweepMode) *testRig {
	t.Helper()
	quietLogs(t)

	layout := testLayout(kind)
	r := &testRig{
		fs:       fsutil.NewMemoryFileSystem(),
		runner:   &fakeRunner{},
		notifier: &fakeNotifier{},
		clock:    timeutil.NewMockClock(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)),
		console:  &strings.Builder{},
	}
	seedInputs(t, r.fs, layout, grid.Sizes, kind == KindRole)
	require.NoError(t, r.fs.MkdirAll(layout.ResultsDir, 0755))

	schema := results.PowSchema
	if kind == KindRole {
		schema = results.RoleSchema
	}
	sink, err := results.OpenCSVSink(r.fs, layout.ResultsFile(), schema)
	require.NoError(t, err)
	r.sink = sink

	opts := Options{
		Grid:             grid,
		Layout:           layout,
		State:            state,
		MinFractionBytes: DefaultMinFractionBytes,
	}
	executor := &Executor{
		FS:      r.fs,
		Layout:  layout,
		Runner:  r.runner,
		Console: r.console,
		Clock:   r.clock,
	}
	r.driver = &Driver{
		Options:  opts,
		FS:       r.fs,
		Executor: executor,
		Guard:    &Guard{FS: r.fs, Notifier: r.notifier},
		Parser:   metrics.NewParser(metrics.GrammarV1, metrics.Defaults{Sentinel: "ERROR", NFisch: 10, M: 16}),
		Sink:     sink,
		Throttle: &Throttle{Base: time.Second, PerMiB: 2 * time.Second, Clock: r.clock},
	}
	return r
}

// rows returns the data rows of the results file.
func (r *testRig) rows(t *testing.T) [][]string {
	t.Helper()
	data, err := r.fs.ReadFile(r.driver.Options.Layout.ResultsFile())
	require.NoError(t, err)
	var out [][]string
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if i == 0 {
			continue
		}
		out = append(out, strings.Split(line, ","))
	}
	return out
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
