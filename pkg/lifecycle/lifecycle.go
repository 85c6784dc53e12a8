// Package lifecycle coordinates startup and shutdown of long-lived systems.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Hook is a named startup or shutdown step.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Coordinator runs startup hooks as they are registered and shutdown hooks
// once Shutdown cancels its context. A system is ready only when every
// startup hook succeeded.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup sync.WaitGroup

	mu       sync.Mutex
	shutdown []namedHook
	failures map[string]error
	ready    bool
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:      ctx,
		cancel:   cancel,
		failures: make(map[string]error),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn in the background with the coordinator context.
// A returned error is recorded under name and keeps the coordinator unready.
func (c *Coordinator) OnStartup(name string, fn Hook) {
	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures[name] = err
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers fn to run when Shutdown is called.
func (c *Coordinator) OnShutdown(name string, fn Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = append(c.shutdown, namedHook{name: name, fn: fn})
}

// WaitForStartup blocks until every startup hook has returned and reports
// the failed ones.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ready = len(c.failures) == 0
	return joinNamed(c.failures)
}

// Ready reports whether startup finished without failures.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Failures returns the startup errors keyed by hook name.
func (c *Coordinator) Failures() map[string]error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.failures)
}

// Shutdown cancels the coordinator context and runs the shutdown hooks
// concurrently, each bounded by timeout. Hooks still running at the
// deadline are abandoned and named in the returned error.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	c.mu.Lock()
	hooks := slices.Clone(c.shutdown)
	c.ready = false
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		errs    = make(map[string]error)
		pending = make(map[string]bool, len(hooks))
	)

	for _, h := range hooks {
		pending[h.name] = true
		wg.Go(func() {
			err := h.fn(ctx)

			mu.Lock()
			defer mu.Unlock()
			delete(pending, h.name)
			if err != nil {
				errs[h.name] = err
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return joinNamed(errs)
	case <-ctx.Done():
		mu.Lock()
		defer mu.Unlock()
		names := slices.Sorted(maps.Keys(pending))
		return errors.Join(
			fmt.Errorf("shutdown timeout after %v: %v still running", timeout, names),
			joinNamed(errs),
		)
	}
}

func joinNamed(errs map[string]error) error {
	var joined []error
	for _, name := range slices.Sorted(maps.Keys(errs)) {
		joined = append(joined, fmt.Errorf("%s: %w", name, errs[name]))
	}
	return errors.Join(joined...)
}
