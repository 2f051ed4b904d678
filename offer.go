package cocol

import (
	"sort"
	"sync"
)

// offerState is the lifecycle of a TwoPhaseOffer.
type offerState int

const (
	offerIdle offerState = iota
	offerOffered
	offerCommitted
)

// TwoPhaseOffer coordinates matching a single logical request against one
// or more candidate partners without ever requiring a goroutine to hold two
// channels' mutexes at once. A plain Read or Write owns a private
// TwoPhaseOffer; a MultiChannelAccess Set shares one TwoPhaseOffer across
// every member Op, so whichever channel finds a partner first wins the
// race and every other member is invalidated.
//
// The protocol is deliberately simplified to three states rather than a
// richer offered-to-many/rescinded state machine: offer() only succeeds
// from offerIdle, and returns false both when another matcher already
// holds the offer and when it has already been committed elsewhere. A
// caller that loses offer() simply tries the next candidate; it never
// needs to distinguish "try again later" from "this offer is gone for
// good", which keeps the matching loop in channel.go straight-line and
// provably free of the lock-order deadlocks a richer protocol would risk.
//
// ID carries the owning request's id, used as the canonical tie-breaker
// when two offers must be locked together (see channel.go's matching
// loop), mirroring smux's atomic request-id ordering for its stream locks.
type TwoPhaseOffer struct {
	mu    sync.Mutex
	state offerState
	id    uint64
}

// NewTwoPhaseOffer constructs an offer tagged with the given id, normally
// the owning request's id.
func NewTwoPhaseOffer(id uint64) *TwoPhaseOffer {
	return &TwoPhaseOffer{id: id}
}

// offer attempts to move the offer from idle to offered. It fails if the
// offer has already been taken by another matcher or already committed.
func (o *TwoPhaseOffer) offer() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != offerIdle {
		return false
	}
	o.state = offerOffered
	return true
}

// withdraw returns an offered (but not committed) offer to idle, allowing
// another matcher to try it. It is a no-op if the offer was never taken by
// the caller or has already been committed.
func (o *TwoPhaseOffer) withdraw() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == offerOffered {
		o.state = offerIdle
	}
}

// commit finalizes an offered offer. It returns false if the offer is not
// currently in the offered state (already committed, or never taken).
func (o *TwoPhaseOffer) commit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != offerOffered {
		return false
	}
	o.state = offerCommitted
	return true
}

// committed reports whether the offer has been finalized.
func (o *TwoPhaseOffer) committed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == offerCommitted
}

// isIdle reports whether the offer is still idle, i.e. neither claimed by a
// concurrent match nor failed by a concurrent timeout/cancellation/overflow
// eviction. Used by the broadcast delivery path to tell a genuinely dead
// sibling apart from one it can still commit.
func (o *TwoPhaseOffer) isIdle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state == offerIdle
}

// tryCommitPair atomically commits both a and b if, and only if, both are
// currently idle. This is the fast path channel.go uses when a reader and
// a writer can be matched directly; channel.go calls it after releasing the
// channel's own mutex. There is no need for a separate offer-then-commit
// window because lockOrdered already guarantees no third party can observe
// or act on either offer mid-decision.
func tryCommitPair(a, b *TwoPhaseOffer) bool {
	unlock := lockOrdered(a, b)
	defer unlock()
	if a.state != offerIdle || b.state != offerIdle {
		return false
	}
	a.state = offerCommitted
	b.state = offerCommitted
	return true
}

// lockOrderedAll locks every distinct offer in offers, in ascending id
// order, the N-way generalization of lockOrdered used by the broadcast
// delivery path, which must commit one writer's offer together with every
// currently queued reader's offer atomically. Duplicate pointers are
// collapsed to a single lock acquisition. Returns an unlock function that
// releases them in reverse order.
func lockOrderedAll(offers []*TwoPhaseOffer) func() {
	uniq := make([]*TwoPhaseOffer, 0, len(offers))
	seen := make(map[*TwoPhaseOffer]bool, len(offers))
	for _, o := range offers {
		if !seen[o] {
			seen[o] = true
			uniq = append(uniq, o)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].id < uniq[j].id })
	for _, o := range uniq {
		o.mu.Lock()
	}
	return func() {
		for i := len(uniq) - 1; i >= 0; i-- {
			uniq[i].mu.Unlock()
		}
	}
}

// tryCommitAll atomically commits every offer in offers if, and only if,
// all are currently idle. This is tryCommitPair generalized to N
// participants, for broadcast delivery where one writer's offer and every
// queued reader's offer must agree together or not at all.
func tryCommitAll(offers []*TwoPhaseOffer) bool {
	unlock := lockOrderedAll(offers)
	defer unlock()
	for _, o := range offers {
		if o.state != offerIdle {
			return false
		}
	}
	for _, o := range offers {
		o.state = offerCommitted
	}
	return true
}

// lockOrdered locks a and b in a canonical order determined by their ids,
// so that two goroutines racing to match the same pair of offers never
// deadlock by acquiring them in opposite order. It returns an unlock
// function that releases both.
func lockOrdered(a, b *TwoPhaseOffer) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
