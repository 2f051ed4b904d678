package cocol

import (
	"time"

	"github.com/cocol-go/cocol/metrics"
)

// ChannelOption configures a Channel at construction time. Use with
// NewChannel[T](opts ...ChannelOption).
type ChannelOption func(*config)

// WithName sets the channel's name, used for logging, metrics labels, and
// lookup via a ChannelScope.
func WithName(name string) ChannelOption {
	return func(c *config) { c.Name = name }
}

// WithBuffer sets the number of writes the channel accepts ahead of a
// matching reader (default 0, synchronous). Not compatible with
// WithBroadcast.
func WithBuffer(n uint) ChannelOption {
	return func(c *config) { c.Buffer = n }
}

// WithMaxPendingReaders caps the number of queued readers. Zero (the
// default) means unbounded.
func WithMaxPendingReaders(n uint) ChannelOption {
	return func(c *config) { c.MaxPendingReaders = n }
}

// WithMaxPendingWriters caps the number of queued writers. Zero (the
// default) means unbounded.
func WithMaxPendingWriters(n uint) ChannelOption {
	return func(c *config) { c.MaxPendingWriters = n }
}

// WithOverflowReaders sets how the channel behaves once
// WithMaxPendingReaders' cap is reached. Has no effect while
// MaxPendingReaders is left at its default of 0 (unbounded).
func WithOverflowReaders(p OverflowPolicy) ChannelOption {
	return func(c *config) { c.OverflowReaders = p }
}

// WithOverflowWriters sets how the channel behaves once
// WithMaxPendingWriters' cap is reached. Has no effect while
// MaxPendingWriters is left at its default of 0 (unbounded).
func WithOverflowWriters(p OverflowPolicy) ChannelOption {
	return func(c *config) { c.OverflowWriters = p }
}

// WithBroadcast enables the broadcast variant: each Write is delivered to
// every reader queued at commit time instead of to a single matched
// reader, once at least barrier readers are pending. Requires the channel
// to otherwise have no buffer (WithBuffer is incompatible with this
// option) and barrier >= 1.
func WithBroadcast(barrier int) ChannelOption {
	return func(c *config) {
		c.Broadcast = true
		c.BroadcastBarrier = uint(barrier)
	}
}

// WithJoinTracking enables the per-direction join counters: Join(asReader)
// and Join(asWriter) register a participant on that side, and the Leave
// call that empties a side's count auto-retires the channel gracefully.
func WithJoinTracking() ChannelOption {
	return func(c *config) { c.JoinTracking = true }
}

// WithDefaultTimeout sets an implicit deadline applied to Read/Write calls
// that do not supply their own RequestOption timeout.
func WithDefaultTimeout(d time.Duration) ChannelOption {
	return func(c *config) { c.DefaultTimeout = d }
}

// WithMetrics attaches a metrics.Provider used to instrument the channel's
// queue depth and match/timeout/cancel/retire counts. A wait-time histogram
// (cocol_channel_wait_seconds) is also created, but no measurements are
// recorded into it.
func WithMetrics(p metrics.Provider) ChannelOption {
	return func(c *config) { c.Metrics = p }
}

// RequestOption configures a single Read/Write/Op invocation, overriding
// the channel's defaults for that call only.
type RequestOption func(*requestConfig)

// requestConfig is the per-call counterpart to config.
type requestConfig struct {
	timeout  time.Duration
	priority int
}

func defaultRequestConfig() requestConfig {
	return requestConfig{timeout: 0, priority: 0}
}

// WithRequestTimeout overrides the channel's DefaultTimeout for this call.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(rc *requestConfig) { rc.timeout = d }
}

// WithPriority sets this request's priority in the channel's waiter queue;
// higher values are served first among otherwise-eligible waiters.
func WithPriority(p int) RequestOption {
	return func(rc *requestConfig) { rc.priority = p }
}

func applyRequestOptions(opts []RequestOption) requestConfig {
	rc := defaultRequestConfig()
	for _, o := range opts {
		if o != nil {
			o(&rc)
		}
	}
	return rc
}
