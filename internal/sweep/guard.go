package sweep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/monitoring"
)

// Notifier installs and removes signal handlers.
type Notifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osNotifier struct{}

func (osNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osNotifier) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

// Guard scopes signal handling to a single run. Outside Enter/Exit the
// process keeps the default disposition, so an interrupt while throttling
// simply terminates it.
type Guard struct {
	FS       fsutil.FileSystem
	Notifier Notifier
}

// RunGuard is the handler for one run.
type RunGuard struct {
	fs       fsutil.FileSystem
	notifier Notifier
	artifact string
	sigs     chan os.Signal
	cancel   context.CancelFunc
	done     chan struct{}
	watched  chan struct{}

	mu       sync.Mutex
	received os.Signal
}

// Enter installs the handler and returns a context that is cancelled when
// SIGINT or SIGTERM arrives, which kills the engine.
func (g *Guard) Enter(ctx context.Context, artifact string) (*RunGuard, context.Context) {
	n := g.Notifier
	if n == nil {
		n = osNotifier{}
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &RunGuard{
		fs:       g.FS,
		notifier: n,
		artifact: artifact,
		sigs:     make(chan os.Signal, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
		watched:  make(chan struct{}),
	}
	n.Notify(r.sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer close(r.watched)
		select {
		case s := <-r.sigs:
			r.record(s)
			cancel()
		case <-r.done:
		}
	}()
	return r, runCtx
}

func (r *RunGuard) record(s os.Signal) {
	r.mu.Lock()
	if r.received == nil {
		r.received = s
	}
	r.mu.Unlock()
}

// Interrupted reports the signal received during the run, if any.
func (r *RunGuard) Interrupted() os.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

// Exit uninstalls the handler. It must be called on every path out of the
// run. If a signal arrived, the partial run log is removed and an error
// wrapping ErrInterrupted is returned.
func (r *RunGuard) Exit() error {
	r.notifier.Stop(r.sigs)
	close(r.done)
	<-r.watched
	r.cancel()

	// A signal may have landed after the watcher stopped listening.
	select {
	case s := <-r.sigs:
		r.record(s)
	default:
	}

	sig := r.Interrupted()
	if sig == nil {
		return nil
	}
	for _, p := range []string{r.artifact, r.artifact + ".failed"} {
		if err := r.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			monitoring.Errorf("remove partial run log %s: %v", p, err)
		}
	}
	monitoring.Errorf("received %v during run; removed partial log %s", sig, r.artifact)
	return fmt.Errorf("%w by %v", ErrInterrupted, sig)
}
