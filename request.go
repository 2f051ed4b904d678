package cocol

import (
	"sync"
	"sync/atomic"
)

// requestSeq is the monotonic source of request identities, in the same
// spirit as smux's atomic.AddUint32(&s.requestID, 1): it gives every
// request a total order used to break ties deterministically during
// two-phase commit, independent of the waiterQueue's own ordering.
var requestSeq uint64

func nextRequestID() uint64 {
	return atomic.AddUint64(&requestSeq, 1)
}

// direction distinguishes a read request from a write request on the same
// channel.
type direction int

const (
	dirRead direction = iota
	dirWrite
)

// request represents one pending Read or Write call (or one member of a
// MultiChannelAccess Set) while it waits for a partner. Completion is
// exactly-once: doneSignal is closed precisely once via once, which lets
// several independent observers — a timeout watcher, a cancellation
// watcher, the calling goroutine, and a MultiChannelAccess fan-in — all
// wait on the same request without racing to consume a result value.
type request[T any] struct {
	id        uint64
	dir       direction
	value     T    // populated by the writer side before or at match time
	hasValue  bool // true once value has been set by either side
	prio      int
	idxInHeap int

	offer *TwoPhaseOffer // private to a plain Read/Write; replaced by the shared offer for a Set member

	once       sync.Once
	doneSignal chan struct{}
	result     T
	err        error
}

func newRequest[T any](dir direction, priority int) *request[T] {
	id := nextRequestID()
	return &request[T]{
		id:         id,
		dir:        dir,
		prio:       priority,
		idxInHeap:  -1,
		offer:      NewTwoPhaseOffer(id),
		doneSignal: make(chan struct{}),
	}
}

func (r *request[T]) seq() uint64        { return r.id }
func (r *request[T]) priority() int      { return r.prio }
func (r *request[T]) heapIndex() int     { return r.idxInHeap }
func (r *request[T]) setHeapIndex(i int) { r.idxInHeap = i }

// complete fulfils the request exactly once; subsequent calls are no-ops.
// It is safe to call from the matching engine, a timeout watcher, or a
// cancellation watcher concurrently — only the first call has any effect.
func (r *request[T]) complete(val T, err error) {
	r.once.Do(func() {
		r.result = val
		r.err = err
		close(r.doneSignal)
	})
}

// isDone reports whether complete has already run, without blocking.
func (r *request[T]) isDone() bool {
	select {
	case <-r.doneSignal:
		return true
	default:
		return false
	}
}
