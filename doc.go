// Package cocol provides CSP-style synchronous channels for Go: typed
// rendezvous between readers and writers, a broadcast variant that
// delivers one write to every pending reader at once, external choice
// across several channels at once, per-direction join-counted retirement,
// and timeout/cancellation that compose with context.Context.
//
// Construction
//
//	ch := cocol.NewChannel[int](cocol.WithName("nums"), cocol.WithBuffer(4))
//
// Unless overridden, a new Channel has no buffer (Read and Write rendezvous
// synchronously), independent and unbounded reader/writer waiter queues,
// and no implicit timeout.
//
// Point-to-point use
//
// Read and Write block until a matching partner is available, the call's
// deadline elapses (ErrTimeout), its context is cancelled (ErrCancelled), or
// the channel is retired (ErrRetired). TryRead and TryWrite never block and
// never leave a waiter queued: they only succeed against a partner already
// available at the moment of the call. On a broadcast channel the probe is
// queued for one delivery attempt and withdrawn again if it misses.
//
// Broadcast
//
// WithBroadcast(barrier) turns a channel into a broadcast variant: a Write
// only completes once at least barrier readers are queued, at which point
// the same value is delivered to every one of them simultaneously and the
// write completes exactly once. A broadcast channel cannot also be
// buffered.
//
// External choice
//
// MultiChannelAccess composes several channel operations, built with Read
// and Write, into a Set and resolves exactly one of them atomically via
// Choose or ChooseAsync — the same two-phase offer/commit protocol Channel
// itself uses internally, generalized across more than one channel. Each
// call selects a Priority: PriorityFirst tries members in listed order and
// commits the first immediate match, PriorityFair rotates the starting
// member across successive calls on the same Set, and PriorityRandom
// shuffles the attempt order.
//
// Lifecycle
//
// Retire marks a channel closed to new offers; outstanding waiters are
// failed with ErrRetired. WithJoinTracking enables independent per-direction
// participant counts: Join(asReader)/Join(asWriter) registers a
// participant, and the Leave call that empties either side's count
// automatically and gracefully retires the channel, so a channel closes the
// moment all its producers or all its consumers are gone.
//
// Sub-packages
//
//   - cocol/pool: admission-gated execution scopes for launching CSP
//     processes without an unbounded goroutine fan-out.
//   - cocol/metrics: a minimal Provider/Recorder abstraction with an
//     in-memory implementation and a Prometheus-backed one.
//   - cocol/registry: a named ChannelScope for resolving channels by name
//     and type across independently constructed processes.
//   - cocol/wire: an optional, logical wire format for channel traffic
//     crossing a process boundary.
package cocol
