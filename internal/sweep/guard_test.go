package sweep

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beholders/benchsweep/internal/fsutil"
)

func TestGuard_NoSignal(t *testing.T) {
	quietLogs(t)
	fs := fsutil.NewMemoryFileSystem()
	n := &fakeNotifier{}
	g := &Guard{FS: fs, Notifier: n}
	require.NoError(t, fs.WriteFile("res/run.txt", []byte("log"), 0644))

	assert.False(t, n.Send(os.Interrupt), "no handler before Enter")
	rg, ctx := g.Enter(context.Background(), "res/run.txt")
	assert.Equal(t, 1, n.Installed())
	require.NoError(t, rg.Exit())

	assert.Equal(t, 0, n.Installed())
	assert.Error(t, ctx.Err(), "run context is released on exit")
	assert.Nil(t, rg.Interrupted())
	assert.True(t, fs.Exists("res/run.txt"))
	assert.False(t, n.Send(os.Interrupt), "no handler after Exit")
}

func TestGuard_SignalCancelsRunAndRemovesLog(t *testing.T) {
	for _, sig := range []os.Signal{os.Interrupt, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			logs := quietLogs(t)
			fs := fsutil.NewMemoryFileSystem()
			n := &fakeNotifier{}
			g := &Guard{FS: fs, Notifier: n}
			require.NoError(t, fs.WriteFile("res/run.txt", []byte("partial"), 0644))
			require.NoError(t, fs.WriteFile("res/run.txt.failed", []byte("partial"), 0644))
			require.NoError(t, fs.WriteFile("res/previous.txt", []byte("done"), 0644))

			rg, ctx := g.Enter(context.Background(), "res/run.txt")
			require.True(t, n.Send(sig))

			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("run context not cancelled by signal")
			}

			err := rg.Exit()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInterrupted))
			assert.Equal(t, ExitInterrupted, ExitCode(err))
			assert.Equal(t, sig, rg.Interrupted())
			assert.False(t, fs.Exists("res/run.txt"))
			assert.False(t, fs.Exists("res/run.txt.failed"))
			assert.True(t, fs.Exists("res/previous.txt"))
			assert.Contains(t, logs.String(), "ERROR: received")
		})
	}
}

func TestGuard_ParentCancelIsNotAnInterrupt(t *testing.T) {
	quietLogs(t)
	fs := fsutil.NewMemoryFileSystem()
	g := &Guard{FS: fs, Notifier: &fakeNotifier{}}
	require.NoError(t, fs.WriteFile("res/run.txt", []byte("log"), 0644))

	parent, cancel := context.WithCancel(context.Background())
	rg, ctx := g.Enter(parent, "res/run.txt")
	cancel()
	<-ctx.Done()

	assert.NoError(t, rg.Exit())
	assert.True(t, fs.Exists("res/run.txt"))
}
