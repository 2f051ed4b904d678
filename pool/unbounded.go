package pool

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Go once the owning Scope has been closed.
var ErrClosed = errors.New("pool: scope closed")

// unbounded is a Scope with no concurrency limit, tracking only enough
// state to let Close wait for every launched goroutine.
type unbounded struct {
	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewUnbounded returns a Scope with no admission limit.
func NewUnbounded() Scope {
	return &unbounded{}
}

func (u *unbounded) Go(ctx context.Context, fn func(context.Context)) error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return ErrClosed
	}
	u.wg.Add(1)
	u.mu.Unlock()

	go func() {
		defer u.wg.Done()
		fn(ctx)
	}()
	return nil
}

func (u *unbounded) Close() error {
	u.mu.Lock()
	u.closed = true
	u.mu.Unlock()
	u.wg.Wait()
	return nil
}
