// Package pool provides admission-gated execution scopes for launching CSP
// processes: goroutines that run for the lifetime of a computation rather
// than being recycled like a worker-pool object. A Scope bounds how many
// such processes may run concurrently (or leaves that unbounded) and lets
// a caller wait for all of them to finish draining before shutdown.
package pool

import "context"

// Scope launches goroutines on behalf of a computation and tracks them so
// Close can wait for every launched goroutine to return. Implementations
// must be safe for concurrent use.
type Scope interface {
	// Go launches fn in a new goroutine once admission is granted (always
	// immediate for an unbounded Scope; gated by capacity for a capped
	// one). It blocks only on admission, never on fn's completion, and
	// returns an error only if ctx is done or the Scope is already closed
	// before admission is granted.
	Go(ctx context.Context, fn func(context.Context)) error

	// Close marks the Scope closed to further Go calls, then waits for
	// every goroutine launched via Go to return.
	Close() error
}
