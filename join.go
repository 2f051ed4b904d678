package cocol

import "sync"

// joinCounter tracks how many processes currently hold a stake in one side
// (readers or writers) of a channel via Join/Leave. A Channel configured
// with WithJoinTracking keeps one of these per direction; the Leave call
// that brings a side's count from 1 to 0 signals its caller to auto-retire
// the channel (Retire(false)) — see Channel.Leave.
type joinCounter struct {
	mu    sync.Mutex
	count int
}

func newJoinCounter() *joinCounter {
	return &joinCounter{}
}

// join registers one more participant.
func (j *joinCounter) join() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.count++
}

// leave releases one participant's stake and reports whether this call
// observed the count transition from 1 to 0 — the signal to retire. A
// Leave with no prior Join (count already 0) is a no-op and never fires.
func (j *joinCounter) leave() (justEmptied bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.count <= 0 {
		return false
	}
	j.count--
	return j.count == 0
}

// outstanding reports the current join count, for diagnostics.
func (j *joinCounter) outstanding() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}
