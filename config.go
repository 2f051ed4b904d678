package cocol

import "time"

// OverflowPolicy decides what happens when one direction of a channel's
// pending-queue cap is reached by an incoming Read or Write.
type OverflowPolicy int

const (
	// OverflowReject fails the incoming request immediately with
	// ErrOverflow; the waiter queue is left untouched.
	OverflowReject OverflowPolicy = iota

	// OverflowFIFO evicts the oldest queued waiter (by arrival order),
	// failing it with ErrOverflow, to make room for the incoming request.
	OverflowFIFO

	// OverflowLIFO evicts the most recently queued waiter, failing it with
	// ErrOverflow, to make room for the incoming request.
	OverflowLIFO
)

// config holds per-Channel configuration assembled from ChannelOption values.
type config struct {
	// Name identifies the channel in logs, metrics, and a ChannelScope.
	// Default: "" (anonymous).
	Name string

	// Buffer sets the number of writes the channel will accept and hold
	// without a matching reader before a writer is enqueued as a waiter.
	// Default: 0 (synchronous rendezvous, no buffering). Must be 0 when
	// Broadcast is set.
	Buffer uint

	// MaxPendingReaders and MaxPendingWriters independently cap the number
	// of queued readers and writers. Zero means unbounded on that side.
	// OverflowReaders/OverflowWriters select the policy applied once the
	// matching cap is reached.
	// Default: both unbounded, both OverflowReject.
	MaxPendingReaders uint
	MaxPendingWriters uint
	OverflowReaders   OverflowPolicy
	OverflowWriters   OverflowPolicy

	// Broadcast enables the broadcast variant: a write is delivered to
	// every currently queued reader at once, rather than paired with a
	// single one. BroadcastBarrier is the minimum number of queued readers
	// required before a write may commit. A channel with Broadcast set
	// must have Buffer == 0 (broadcast values are never buffered) and
	// BroadcastBarrier >= 1.
	// Default: Broadcast disabled.
	Broadcast        bool
	BroadcastBarrier uint

	// JoinTracking enables the per-direction join counters: Join(asReader)/
	// Join(asWriter) registers a participant, and the matching Leave call
	// that empties that side's count auto-retires the channel gracefully
	// (Retire(false)).
	// Default: false (Join/Leave are no-ops).
	JoinTracking bool

	// DefaultTimeout applies to Read/Write calls that don't supply their
	// own RequestOption timeout. Zero means no implicit deadline.
	// Default: 0 (none).
	DefaultTimeout time.Duration

	// Metrics receives per-channel Provider instrumentation. Nil selects
	// metrics.NewNoopProvider().
	Metrics interface{}
}

// defaultConfig centralizes default values for config. Applied as the base
// state before ChannelOption values are folded in by NewChannel.
func defaultConfig() config {
	return config{
		Name:              "",
		Buffer:            0,
		MaxPendingReaders: 0,
		MaxPendingWriters: 0,
		OverflowReaders:   OverflowReject,
		OverflowWriters:   OverflowReject,
		Broadcast:         false,
		BroadcastBarrier:  0,
		JoinTracking:      false,
		DefaultTimeout:    0,
		Metrics:           nil,
	}
}

// validateConfig performs lightweight invariant checks before a Channel is
// constructed from the assembled config.
func validateConfig(cfg *config) error {
	if cfg.DefaultTimeout < 0 {
		return ErrInvalidConfig
	}
	if cfg.Broadcast && cfg.Buffer != 0 {
		return ErrInvalidConfig
	}
	if cfg.Broadcast && cfg.BroadcastBarrier < 1 {
		return ErrInvalidConfig
	}
	return nil
}
