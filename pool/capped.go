package pool

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// capped is a Scope that admits at most n concurrently running goroutines.
// Admission is gated by a weighted semaphore rather than the teacher's
// object-recycling fixed pool: processes launched here are not reusable
// workers, they are CSP processes with their own lifetime, so what needs
// bounding is concurrency, not allocation.
type capped struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewCapped returns a Scope that runs at most n goroutines concurrently.
// n must be > 0.
func NewCapped(n int64) Scope {
	return &capped{sem: semaphore.NewWeighted(n)}
}

func (c *capped) Go(ctx context.Context, fn func(context.Context)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.sem.Release(1)
		fn(ctx)
	}()
	return nil
}

func (c *capped) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
	return nil
}
