// Package optimistic runs local-first mutations against a remote source of truth.
//
// Apply runs before the remote call; on success Reconcile receives the server
// result, on failure Revert restores the prior value. A Guard keeps one call in
// flight per control key.
package optimistic

import (
	"context"
	"sync"

	"github.com/and161185/academy-client/internal/errs"
)

// Guard tracks controls with a call in flight.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewGuard returns an empty guard.
func NewGuard() *Guard { return &Guard{busy: map[string]struct{}{}} }

// Acquire marks key busy; false if it already was.
func (g *Guard) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[key]; ok {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

// Release frees key.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	delete(g.busy, key)
	g.mu.Unlock()
}

// Busy reports whether key has a call in flight.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[key]
	return ok
}

// Mutation describes one optimistic change. Apply and Revert must be nil-safe
// to skip; Call is required.
type Mutation[T any] struct {
	Apply     func()
	Call      func(ctx context.Context) (T, error)
	Reconcile func(T)
	Revert    func(err error)
}

// Run executes m under key. A second Run for the same key while the first is
// in flight returns errs.ErrBusy without calling anything.
func Run[T any](ctx context.Context, g *Guard, key string, m Mutation[T]) (T, error) {
	var zero T
	if !g.Acquire(key) {
		return zero, errs.ErrBusy
	}
	defer g.Release(key)

	if m.Apply != nil {
		m.Apply()
	}
	res, err := m.Call(ctx)
	if err != nil {
		if m.Revert != nil {
			m.Revert(err)
		}
		return zero, err
	}
	if m.Reconcile != nil {
		m.Reconcile(res)
	}
	return res, nil
}
