package cocol

import "container/heap"

// waiter is the common shape a queued reader or writer request exposes to
// the waiterQueue. idx is maintained by container/heap and lets removeAt
// evict an arbitrary element in O(log n), the same trick gaio's timedHeap
// uses for its timeout wheel and smux's shaperHeap uses for pending writes.
type waiter interface {
	seq() uint64
	priority() int
	heapIndex() int
	setHeapIndex(i int)
}

// waiterQueue orders pending requests by priority (descending) and, within
// equal priority, by arrival sequence (ascending) — a stable priority
// queue backed by container/heap.
type waiterQueue struct {
	items []waiter
}

func newWaiterQueue() *waiterQueue {
	q := &waiterQueue{}
	heap.Init(q)
	return q
}

func (q *waiterQueue) Len() int { return len(q.items) }

func (q *waiterQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.priority() != b.priority() {
		return a.priority() > b.priority()
	}
	return a.seq() < b.seq()
}

func (q *waiterQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].setHeapIndex(i)
	q.items[j].setHeapIndex(j)
}

func (q *waiterQueue) Push(x interface{}) {
	w := x.(waiter)
	w.setHeapIndex(len(q.items))
	q.items = append(q.items, w)
}

func (q *waiterQueue) Pop() interface{} {
	old := q.items
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.setHeapIndex(-1)
	q.items = old[:n-1]
	return w
}

// push enqueues w, maintaining the heap invariant.
func (q *waiterQueue) push(w waiter) { heap.Push(q, w) }

// popFront removes and returns the highest-priority/earliest waiter, or nil
// if the queue is empty.
func (q *waiterQueue) popFront() waiter {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(waiter)
}

// front returns, without removing, the highest-priority/earliest waiter.
func (q *waiterQueue) front() waiter {
	if q.Len() == 0 {
		return nil
	}
	return q.items[0]
}

// removeAt evicts w if it is still present in the queue, identified by its
// last known heap index. Returns true if it was removed. This is what lets
// a timed-out or cancelled request withdraw itself without scanning the
// whole queue.
func (q *waiterQueue) removeAt(w waiter) bool {
	i := w.heapIndex()
	if i < 0 || i >= q.Len() || q.items[i] != w {
		return false
	}
	heap.Remove(q, i)
	return true
}

// all returns a snapshot slice of the queued waiters in arbitrary heap
// order; used by retirement, broadcast delivery and overflow eviction,
// none of which depend on that order.
func (q *waiterQueue) all() []waiter {
	out := make([]waiter, len(q.items))
	copy(out, q.items)
	return out
}
