package cocol

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cocol-go/cocol/metrics"
)

// Channel is a typed, synchronous rendezvous point between readers and
// writers, in the tradition of a CSP channel: a successful Read always
// pairs with exactly one successful Write (or, in broadcast mode, with
// every reader registered at commit time). Channel is safe for concurrent
// use by any number of goroutines.
type Channel[T any] struct {
	mu sync.Mutex

	cfg config

	readers *waiterQueue
	writers *waiterQueue
	buf     []T // values accepted ahead of a matching reader, up to cfg.Buffer

	state channelState

	joinReaders *joinCounter
	joinWriters *joinCounter

	log     *logrus.Entry
	metrics channelMetrics
}

// channelState is the channel's monotone lifecycle: Open -> Retiring ->
// Retired. Retiring only appears when Retire(false) is called on a channel
// holding buffered values; it behaves like Retired for new writes but still
// lets queued reads drain the remaining buffer in order (see L2). A
// broadcast channel never buffers, so it always moves straight to Retired.
type channelState int

const (
	stateOpen channelState = iota
	stateRetiring
	stateRetired
)

// channelMetrics bundles the instruments a Channel records against.
type channelMetrics struct {
	matched   metrics.Counter
	timedOut  metrics.Counter
	cancelled metrics.Counter
	retiredAt metrics.Counter
	queued    metrics.UpDownCounter
	waitTime  metrics.Histogram
}

func newChannelMetrics(p metrics.Provider, name string) channelMetrics {
	if p == nil {
		p = metrics.NewNoopProvider()
	}
	attrs := metrics.WithAttributes(map[string]string{"channel": name})
	return channelMetrics{
		matched:   p.Counter("cocol_channel_matched_total", attrs),
		timedOut:  p.Counter("cocol_channel_timeout_total", attrs),
		cancelled: p.Counter("cocol_channel_cancelled_total", attrs),
		retiredAt: p.Counter("cocol_channel_retired_total", attrs),
		queued:    p.UpDownCounter("cocol_channel_queued", attrs),
		waitTime:  p.Histogram("cocol_channel_wait_seconds", attrs, metrics.WithUnit("seconds")),
	}
}

// NewChannel constructs a Channel with the given options applied over the
// package defaults.
func NewChannel[T any](opts ...ChannelOption) *Channel[T] {
	cfg := defaultConfig()
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	if err := validateConfig(&cfg); err != nil {
		panic(errors.Wrap(err, Namespace+": NewChannel"))
	}

	p, _ := cfg.Metrics.(metrics.Provider)

	log := logrus.WithFields(logrus.Fields{"component": "cocol.channel", "name": cfg.Name})

	ch := &Channel[T]{
		cfg:     cfg,
		readers: newWaiterQueue(),
		writers: newWaiterQueue(),
		log:     log,
		metrics: newChannelMetrics(p, cfg.Name),
	}
	if cfg.JoinTracking {
		ch.joinReaders = newJoinCounter()
		ch.joinWriters = newJoinCounter()
	}
	return ch
}

// Name returns the channel's configured name.
func (ch *Channel[T]) Name() string { return ch.cfg.Name }

// Join registers the calling process as a participant on one side of the
// channel (asReader=true for a reader, false for a writer). It is a no-op
// unless the channel was built with WithJoinTracking.
func (ch *Channel[T]) Join(asReader bool) {
	if c := ch.joinCounterFor(asReader); c != nil {
		c.join()
	}
}

// Leave releases the calling process's participation registered by Join on
// the same side. If this Leave empties that side's join count (the last
// reader, or the last writer, departs), the channel is automatically and
// gracefully retired (equivalent to Retire(false)) — see spec §4.5: a
// channel closes when either all producers or all consumers are gone.
func (ch *Channel[T]) Leave(asReader bool) {
	c := ch.joinCounterFor(asReader)
	if c == nil {
		return
	}
	if c.leave() {
		ch.Retire(false)
	}
}

func (ch *Channel[T]) joinCounterFor(asReader bool) *joinCounter {
	if asReader {
		return ch.joinReaders
	}
	return ch.joinWriters
}

// IsRetired reports whether the channel has fully retired, i.e. Retire was
// called, any buffered values it held have all been drained by Read, and
// its state is Retired. A channel in the intermediate Retiring state
// (buffered values still pending) reports false.
func (ch *Channel[T]) IsRetired() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state == stateRetired
}

// Retire moves the channel to Retiring. Already-queued writers are always
// failed with ErrRetired immediately, since no further values are accepted
// once retirement begins. Already-queued readers are failed immediately
// too, since arm only ever queues a reader when the buffer is empty.
//
// If immediate is true, or the channel's buffer is already empty (always
// true for a broadcast channel), the channel moves straight to Retired.
// Otherwise it stays Retiring until every buffered value has been drained
// by Read, at which point the last draining Read finalizes the transition
// to Retired (see L2).
func (ch *Channel[T]) Retire(immediate bool) {
	ch.mu.Lock()
	if ch.state != stateOpen {
		ch.mu.Unlock()
		return
	}
	writers := ch.writers.all()
	readers := ch.readers.all()
	ch.writers = newWaiterQueue()
	ch.readers = newWaiterQueue()

	drained := immediate || len(ch.buf) == 0
	if drained {
		ch.state = stateRetired
		ch.buf = nil
	} else {
		ch.state = stateRetiring
	}
	ch.mu.Unlock()

	for _, w := range writers {
		failWaiter(w, ErrRetired)
	}
	for _, w := range readers {
		failWaiter(w, ErrRetired)
	}
	if drained {
		ch.metrics.retiredAt.Add(1)
		ch.log.Debug("channel retired")
	} else {
		ch.log.Debug("channel retiring, buffer draining")
	}
}

// failWaiter completes a generic queued waiter with err. The waiterQueue
// stores the erased waiter interface, so matching and retirement code that
// walks a snapshot slice recovers the typed complete path through this
// narrow interface instead of a type switch on every element's *request[T].
func failWaiter(w waiter, err error) {
	if f, ok := w.(interface{ fail(error) }); ok {
		f.fail(err)
	}
}

// fail completes r with err if it has not already completed.
func (r *request[T]) fail(err error) { r.complete(r.result, err) }

// arm registers r against the channel: if a partner is immediately
// available (a queued writer for a read, a queued reader or free buffer
// slot for a write), it completes r synchronously and returns true.
// Otherwise it enqueues r and returns false. arm is the shared core behind
// Read, Write, and every MultiChannelAccess Op (TryRead/TryWrite use the
// non-queuing tryArm instead).
func (ch *Channel[T]) arm(r *request[T]) (matchedNow bool) {
	ch.mu.Lock()

	if r.dir == dirWrite && ch.state != stateOpen {
		ch.mu.Unlock()
		r.complete(r.result, ErrRetired)
		return true
	}
	if r.dir == dirRead && ch.state == stateRetired {
		ch.mu.Unlock()
		r.complete(r.result, ErrRetired)
		return true
	}

	if ch.cfg.Broadcast {
		if r.dir == dirRead {
			return ch.armBroadcastRead(r)
		}
		return ch.armBroadcastWrite(r)
	}

	if r.dir == dirRead {
		if len(ch.buf) > 0 {
			val := ch.buf[0]
			ch.buf = ch.buf[1:]
			finalized := ch.state == stateRetiring && len(ch.buf) == 0
			if finalized {
				ch.state = stateRetired
			}
			ch.mu.Unlock()
			ch.metrics.matched.Add(1)
			if finalized {
				ch.metrics.retiredAt.Add(1)
				ch.log.Debug("channel retired")
			}
			r.complete(val, nil)
			return true
		}
		if ch.state == stateRetiring {
			// Retiring with an empty buffer and no queued writer (none are
			// ever admitted once Retiring begins): nothing left to drain.
			ch.state = stateRetired
			ch.mu.Unlock()
			ch.metrics.retiredAt.Add(1)
			ch.log.Debug("channel retired")
			r.complete(r.result, ErrRetired)
			return true
		}
		if w := ch.writers.popFront(); w != nil {
			writer := w.(*request[T])
			ch.mu.Unlock()
			if tryCommitPair(r.offer, writer.offer) {
				ch.metrics.matched.Add(1)
				ch.metrics.queued.Add(-1)
				writer.complete(writer.value, nil)
				r.complete(writer.value, nil)
				return true
			}
			ch.mu.Lock()
		}
		return ch.enqueueOrOverflow(ch.readers, r, ch.cfg.MaxPendingReaders, ch.cfg.OverflowReaders)
	}

	// dirWrite
	if rd := ch.readers.popFront(); rd != nil {
		reader := rd.(*request[T])
		ch.mu.Unlock()
		if tryCommitPair(r.offer, reader.offer) {
			ch.metrics.matched.Add(1)
			ch.metrics.queued.Add(-1)
			reader.complete(r.value, nil)
			r.complete(r.value, nil)
			return true
		}
		ch.mu.Lock()
	}
	if uint(len(ch.buf)) < ch.cfg.Buffer {
		ch.buf = append(ch.buf, r.value)
		ch.mu.Unlock()
		ch.metrics.matched.Add(1)
		r.complete(r.value, nil)
		return true
	}
	return ch.enqueueOrOverflow(ch.writers, r, ch.cfg.MaxPendingWriters, ch.cfg.OverflowWriters)
}

// tryArm is the non-blocking counterpart of arm: if no partner is
// immediately available, it returns false having left the channel's queues
// untouched — it never calls enqueueOrOverflow. The one exception is a
// broadcast channel, where the probe is pushed onto its queue for a single
// delivery attempt and removed again if that attempt does not complete it.
// For point-to-point channels this is what
// lets TryRead/TryWrite attempt a match without the race a publish-then-
// immediately-withdraw approach would have, where a concurrent Read/Write
// could pop and commit against a waiter that was only ever meant to be a
// non-blocking probe.
func (ch *Channel[T]) tryArm(r *request[T]) (matchedNow bool) {
	ch.mu.Lock()

	if r.dir == dirWrite && ch.state != stateOpen {
		ch.mu.Unlock()
		r.complete(r.result, ErrRetired)
		return true
	}
	if r.dir == dirRead && ch.state == stateRetired {
		ch.mu.Unlock()
		r.complete(r.result, ErrRetired)
		return true
	}

	if ch.cfg.Broadcast {
		// A single non-blocking call cannot wait for more readers to
		// arrive, so it only ever succeeds against an already-satisfied
		// barrier, via the same delivery path as a blocking Write/Read.
		// ch.mu is already held here; tryBroadcastDeliver always returns
		// with it unlocked.
		if r.dir == dirRead {
			ch.readers.push(r)
			ch.metrics.queued.Add(1)
			ch.tryBroadcastDeliver()
			if !r.isDone() {
				ch.mu.Lock()
				if ch.readers.removeAt(r) {
					ch.metrics.queued.Add(-1)
				}
				ch.mu.Unlock()
			}
			return r.isDone()
		}
		ch.writers.push(r)
		ch.metrics.queued.Add(1)
		ch.tryBroadcastDeliver()
		if !r.isDone() {
			ch.mu.Lock()
			if ch.writers.removeAt(r) {
				ch.metrics.queued.Add(-1)
			}
			ch.mu.Unlock()
		}
		return r.isDone()
	}

	if r.dir == dirRead {
		if len(ch.buf) > 0 {
			val := ch.buf[0]
			ch.buf = ch.buf[1:]
			finalized := ch.state == stateRetiring && len(ch.buf) == 0
			if finalized {
				ch.state = stateRetired
			}
			ch.mu.Unlock()
			ch.metrics.matched.Add(1)
			if finalized {
				ch.metrics.retiredAt.Add(1)
				ch.log.Debug("channel retired")
			}
			r.complete(val, nil)
			return true
		}
		if ch.state == stateRetiring {
			ch.state = stateRetired
			ch.mu.Unlock()
			ch.metrics.retiredAt.Add(1)
			ch.log.Debug("channel retired")
			r.complete(r.result, ErrRetired)
			return true
		}
		if w := ch.writers.front(); w != nil {
			writer := w.(*request[T])
			ch.mu.Unlock()
			if tryCommitPair(r.offer, writer.offer) {
				ch.mu.Lock()
				ch.writers.removeAt(writer)
				ch.mu.Unlock()
				ch.metrics.matched.Add(1)
				ch.metrics.queued.Add(-1)
				writer.complete(writer.value, nil)
				r.complete(writer.value, nil)
				return true
			}
			ch.mu.Lock()
		}
		ch.mu.Unlock()
		return false
	}

	// dirWrite
	if rd := ch.readers.front(); rd != nil {
		reader := rd.(*request[T])
		ch.mu.Unlock()
		if tryCommitPair(r.offer, reader.offer) {
			ch.mu.Lock()
			ch.readers.removeAt(reader)
			ch.mu.Unlock()
			ch.metrics.matched.Add(1)
			ch.metrics.queued.Add(-1)
			reader.complete(r.value, nil)
			r.complete(r.value, nil)
			return true
		}
		ch.mu.Lock()
	}
	if uint(len(ch.buf)) < ch.cfg.Buffer {
		ch.buf = append(ch.buf, r.value)
		ch.mu.Unlock()
		ch.metrics.matched.Add(1)
		r.complete(r.value, nil)
		return true
	}
	ch.mu.Unlock()
	return false
}

// armBroadcastRead enqueues a reader and attempts delivery, since the
// newly queued reader may itself be the one that reaches the barrier.
// Called with ch.mu held; always returns with it unlocked.
func (ch *Channel[T]) armBroadcastRead(r *request[T]) (matchedNow bool) {
	if matchedNow = ch.enqueueOrOverflow(ch.readers, r, ch.cfg.MaxPendingReaders, ch.cfg.OverflowReaders); matchedNow {
		return true
	}
	ch.mu.Lock()
	ch.tryBroadcastDeliver()
	return r.isDone()
}

// armBroadcastWrite enqueues a writer and attempts delivery, since readers
// satisfying the barrier may already be queued. Called with ch.mu held;
// always returns with it unlocked.
func (ch *Channel[T]) armBroadcastWrite(w *request[T]) (matchedNow bool) {
	if matchedNow = ch.enqueueOrOverflow(ch.writers, w, ch.cfg.MaxPendingWriters, ch.cfg.OverflowWriters); matchedNow {
		return true
	}
	ch.mu.Lock()
	ch.tryBroadcastDeliver()
	return w.isDone()
}

// tryBroadcastDeliver checks whether the head pending writer now has
// enough queued readers to satisfy cfg.BroadcastBarrier, and if so
// delivers that writer's value to every currently queued reader at once,
// completing the write exactly once (§4.1 "Broadcast variant"). Called
// with ch.mu held; always returns with it unlocked.
func (ch *Channel[T]) tryBroadcastDeliver() {
	for {
		wHead := ch.writers.front()
		if wHead == nil || uint(ch.readers.Len()) < ch.cfg.BroadcastBarrier {
			ch.mu.Unlock()
			return
		}
		writer := wHead.(*request[T])
		readers := ch.readers.all()

		offers := make([]*TwoPhaseOffer, 0, len(readers)+1)
		offers = append(offers, writer.offer)
		for _, rd := range readers {
			offers = append(offers, rd.(*request[T]).offer)
		}

		if !tryCommitAll(offers) {
			// One or more participating offers is no longer idle (claimed
			// by a concurrent timeout/cancellation/eviction elsewhere).
			// Drop the dead ones and retry with what remains; if nothing
			// changed there is nothing more this call can do right now.
			progressed := false
			if !writer.offer.isIdle() {
				ch.writers.removeAt(writer)
				progressed = true
			}
			for _, rd := range readers {
				if !rd.(*request[T]).offer.isIdle() {
					ch.readers.removeAt(rd)
					progressed = true
				}
			}
			if !progressed {
				ch.mu.Unlock()
				return
			}
			continue
		}

		ch.writers.removeAt(writer)
		for _, rd := range readers {
			ch.readers.removeAt(rd)
		}
		ch.mu.Unlock()

		ch.metrics.matched.Add(1)
		ch.metrics.queued.Add(-(int64(len(readers)) + 1))
		for _, rd := range readers {
			rd.(*request[T]).complete(writer.value, nil)
		}
		writer.complete(writer.value, nil)

		ch.mu.Lock()
	}
}

// enqueueOrOverflow pushes r onto q, applying policy once maxWaiters is
// reached (0 means unbounded). Called with ch.mu held; always returns
// with it unlocked.
func (ch *Channel[T]) enqueueOrOverflow(q *waiterQueue, r *request[T], maxWaiters uint, policy OverflowPolicy) (matchedNow bool) {
	if maxWaiters == 0 || uint(q.Len()) < maxWaiters {
		q.push(r)
		ch.metrics.queued.Add(1)
		ch.mu.Unlock()
		return false
	}

	if policy == OverflowReject {
		ch.mu.Unlock()
		r.complete(r.result, ErrOverflow)
		return true
	}

	victim := evictVictim[T](q, policy)
	q.push(r)
	if victim == nil {
		ch.metrics.queued.Add(1)
	}
	ch.mu.Unlock()
	if victim != nil {
		victim.complete(victim.result, ErrOverflow)
	}
	return false
}

// evictVictim removes and returns one waiter from q chosen by policy
// (oldest arrival for OverflowFIFO, newest for OverflowLIFO), atomically
// claiming its offer as failed first. If the chosen waiter's offer has
// already been claimed by a concurrent match (it is about to complete
// successfully through the normal matching path instead), evictVictim
// leaves it in place and returns nil rather than evicting a request that
// is no longer really overflow's to decide.
func evictVictim[T any](q *waiterQueue, policy OverflowPolicy) *request[T] {
	items := q.all()
	if len(items) == 0 {
		return nil
	}
	victim := items[0]
	for _, w := range items[1:] {
		switch policy {
		case OverflowFIFO:
			if w.seq() < victim.seq() {
				victim = w
			}
		case OverflowLIFO:
			if w.seq() > victim.seq() {
				victim = w
			}
		}
	}
	vr := victim.(*request[T])
	if !vr.offer.claimFail() {
		return nil
	}
	if !q.removeAt(victim) {
		return nil
	}
	return vr
}

// disarm withdraws r from whichever queue it is sitting in. Used both by
// timeout/cancellation (which then fails r) and by MultiChannelAccess
// (which invalidates the losing Op members silently once a sibling wins).
func (ch *Channel[T]) disarm(r *request[T]) (removed bool) {
	ch.mu.Lock()
	if r.dir == dirRead {
		removed = ch.readers.removeAt(r)
	} else {
		removed = ch.writers.removeAt(r)
	}
	ch.mu.Unlock()
	return removed
}

// Read blocks until a writer is available, the call's timeout elapses, its
// context is cancelled, or the channel is retired.
func (ch *Channel[T]) Read(ctx context.Context, opts ...RequestOption) (T, error) {
	rc := applyRequestOptions(opts)
	timeout := ch.cfg.DefaultTimeout
	if rc.timeout > 0 {
		timeout = rc.timeout
	}

	r := newRequest[T](dirRead, rc.priority)
	if matchedNow := ch.arm(r); !matchedNow && needsWatcher(ctx, timeout) {
		go watchTimeout(ch, r, ctx, timeout)
	}

	<-r.doneSignal
	ch.recordOutcome(r.err)
	return r.result, r.err
}

// Write blocks until a reader is available (or the channel's buffer has
// room), the call's timeout elapses, its context is cancelled, or the
// channel is retired.
func (ch *Channel[T]) Write(ctx context.Context, value T, opts ...RequestOption) error {
	rc := applyRequestOptions(opts)
	timeout := ch.cfg.DefaultTimeout
	if rc.timeout > 0 {
		timeout = rc.timeout
	}

	w := newRequest[T](dirWrite, rc.priority)
	w.value = value
	w.hasValue = true

	if matchedNow := ch.arm(w); !matchedNow && needsWatcher(ctx, timeout) {
		go watchTimeout(ch, w, ctx, timeout)
	}

	<-w.doneSignal
	ch.recordOutcome(w.err)
	return w.err
}

// recordOutcome records the terminal state of a request that went through
// the blocking wait path. A synchronous match is already counted by arm;
// this only accounts for outcomes that resolve later, from the queue.
func (ch *Channel[T]) recordOutcome(err error) {
	switch err {
	case ErrTimeout:
		ch.metrics.timedOut.Add(1)
	case ErrCancelled:
		ch.metrics.cancelled.Add(1)
	}
}

// TryRead attempts a non-blocking read. It returns (value, true) if a
// writer (or buffered value) was immediately available, or the zero value
// and false otherwise — it never leaves a waiter queued.
func (ch *Channel[T]) TryRead() (T, bool) {
	r := newRequest[T](dirRead, 0)
	if !ch.tryArm(r) {
		var zero T
		return zero, false
	}
	return r.result, r.err == nil
}

// TryWrite attempts a non-blocking write. It returns true if a reader was
// immediately available or the buffer had room, and false otherwise — it
// never leaves a waiter queued.
func (ch *Channel[T]) TryWrite(value T) bool {
	w := newRequest[T](dirWrite, 0)
	w.value = value
	w.hasValue = true
	if !ch.tryArm(w) {
		return false
	}
	return w.err == nil
}

// failPending withdraws r from whichever of this channel's queues it is
// still sitting in and fails it with err. If r has already been matched
// (and thus removed from the queue by the matching goroutine under ch.mu),
// this is a no-op: matching and withdrawal are both serialized on ch.mu,
// so there is no window where both could act on the same request.
func (ch *Channel[T]) failPending(r *request[T], err error) {
	if !ch.disarm(r) {
		return
	}
	if !r.offer.claimFail() {
		return
	}
	ch.metrics.queued.Add(-1)
	r.complete(r.result, err)
}

// claimFail transitions an idle offer straight to committed so that a
// timeout/cancellation firing concurrently with a matching attempt cannot
// both "win": whichever of the matching engine's tryCommitPair or this
// claimFail runs first determines the outcome, and the loser observes the
// offer already committed.
func (o *TwoPhaseOffer) claimFail() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != offerIdle {
		return false
	}
	o.state = offerCommitted
	return true
}
