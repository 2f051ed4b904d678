package cocol

import (
	"context"
	"time"
)

// watchTimeout races a pending request's completion against an optional
// deadline and an optional cancellation context. It is only spawned when
// at least one of the two is actually in play — a request with neither a
// timeout nor a cancellable context never pays for a watcher goroutine.
// On firing, it asks the owning channel to withdraw the request from its
// queue and fail it; if the request has already been matched by the time
// the channel mutex is acquired, failPending is a no-op because matching
// and withdrawal are both serialized on that same mutex.
func watchTimeout[T any](ch *Channel[T], r *request[T], ctx context.Context, timeout time.Duration) {
	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	var cancelC <-chan struct{}
	if ctx != nil {
		cancelC = ctx.Done()
	}

	select {
	case <-r.doneSignal:
		// matched, retired, or already failed by another path.
	case <-timerC:
		ch.failPending(r, ErrTimeout)
	case <-cancelC:
		ch.failPending(r, ErrCancelled)
	}
}

// needsWatcher reports whether a watcher goroutine is worth spawning for
// the given timeout/context combination.
func needsWatcher(ctx context.Context, timeout time.Duration) bool {
	if timeout > 0 {
		return true
	}
	if ctx == nil {
		return false
	}
	return ctx.Done() != nil
}
