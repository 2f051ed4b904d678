package wire

// Reorderer restores the original send order of responses that may arrive out
// of order over an async transport, the same contiguous-cursor technique the
// teacher's preserve-order coordinator uses for task results: each Frame
// carries the sequence number it was sent under, responses ahead of the
// cursor are buffered, and only a contiguous run starting at the cursor is
// ever emitted.
type Reorderer struct {
	events  <-chan seqFrame
	results chan<- Frame
}

// seqFrame pairs a Frame with the monotonic sequence number assigned when its
// request was issued, so responses can be re-sorted independent of
// RequestID allocation order.
type seqFrame struct {
	seq int
	f   Frame
}

// NewReorderer constructs a Reorderer. Callers feed completed responses into
// events tagged with their original send sequence number (see Sequencer) and
// read back an in-order stream from results.
func NewReorderer(events <-chan seqFrame, results chan<- Frame) *Reorderer {
	return &Reorderer{events: events, results: results}
}

// Run drains events until it is closed, emitting each frame as soon as it
// extends the contiguous run starting at the cursor. Frames still buffered
// behind a gap when events closes are dropped, and results is not closed.
func (r *Reorderer) Run() {
	next := 0
	buf := make(map[int]Frame)

	for ev := range r.events {
		buf[ev.seq] = ev.f
		for {
			f, ok := buf[next]
			if !ok {
				break
			}
			r.results <- f
			delete(buf, next)
			next++
		}
	}
}

// Sequencer hands out strictly increasing sequence numbers for tagging
// outbound requests, so their responses can later be restored to send order
// by a Reorderer regardless of completion order.
type Sequencer struct {
	next int
}

// Next returns the next sequence number, starting at 0.
func (s *Sequencer) Next() int {
	n := s.next
	s.next++
	return n
}
