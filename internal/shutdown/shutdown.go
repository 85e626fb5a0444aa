// Package shutdown keeps the process alive until registered hooks have
// settled. It exists for one failure mode: a release run killed mid-flight
// must still get a chance to roll back a bumped-but-unpublished version, so
// termination signals are intercepted and every hook is awaited, however
// long it takes, before the process actually exits.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Hook runs before the process exits. Hooks may block; the registry waits
// for each one to return and never cancels one mid-way.
type Hook func(ctx context.Context)

type namedHook struct {
	name string
	hook Hook
}

// Registry collects hooks and runs them exactly once, whether triggered by
// a termination signal or by the normal end of the run.
type Registry struct {
	mu    sync.Mutex
	hooks []namedHook

	runOnce sync.Once

	// exit is swapped out in tests.
	exit func(code int)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exit: os.Exit}
}

// Register adds a hook under a name used only for logging. Registration
// after the hooks have started running is ignored.
func (r *Registry) Register(name string, hook Hook) {
	if hook == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, namedHook{name: name, hook: hook})
}

// RunHooks runs every registered hook in registration order and waits for
// each to settle. Only the first call runs anything; later calls (from the
// signal path or the normal exit path, whichever loses the race) block
// until the first has finished, then return.
func (r *Registry) RunHooks(ctx context.Context) {
	r.runOnce.Do(func() {
		r.mu.Lock()
		hooks := make([]namedHook, len(r.hooks))
		copy(hooks, r.hooks)
		r.mu.Unlock()

		for _, h := range hooks {
			slog.Debug("Running shutdown hook", "hook", h.name)
			h.hook(ctx)
		}
	})
}

// Listen installs handling for SIGINT and SIGTERM. On a signal the hooks
// run to completion and the process exits with the conventional 128+signal
// code. The returned stop function uninstalls the handler.
func (r *Registry) Listen() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		slog.Warn("Termination signal received, waiting for shutdown hooks", "signal", sig.String())
		r.RunHooks(context.Background())

		code := 1
		if s, ok := sig.(syscall.Signal); ok {
			code = 128 + int(s)
		}
		r.exit(code)
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}
