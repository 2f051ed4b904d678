package cocol

import (
	"sync"
	"testing"
)

func TestTwoPhaseOffer_OfferCommitWithdraw(t *testing.T) {
	o := NewTwoPhaseOffer(1)

	if !o.offer() {
		t.Fatalf("expected first offer() to succeed")
	}
	if o.offer() {
		t.Fatalf("expected second offer() to fail while already offered")
	}
	o.withdraw()
	if !o.offer() {
		t.Fatalf("expected offer() to succeed again after withdraw")
	}
	if !o.commit() {
		t.Fatalf("expected commit() to succeed from offered")
	}
	if o.commit() {
		t.Fatalf("expected second commit() to fail")
	}
	if !o.committed() {
		t.Fatalf("expected committed() true after commit")
	}
}

func TestTwoPhaseOffer_WithdrawAfterCommitIsNoop(t *testing.T) {
	o := NewTwoPhaseOffer(1)
	o.offer()
	o.commit()
	o.withdraw()
	if !o.committed() {
		t.Fatalf("withdraw must not undo a commit")
	}
}

func TestTryCommitPair_SucceedsOnceForBothIdle(t *testing.T) {
	a := NewTwoPhaseOffer(1)
	b := NewTwoPhaseOffer(2)

	if !tryCommitPair(a, b) {
		t.Fatalf("expected tryCommitPair to succeed on two idle offers")
	}
	if !a.committed() || !b.committed() {
		t.Fatalf("expected both offers committed")
	}
	if tryCommitPair(a, b) {
		t.Fatalf("expected second tryCommitPair to fail, already committed")
	}
}

func TestTryCommitPair_FailsIfEitherAlreadyCommitted(t *testing.T) {
	a := NewTwoPhaseOffer(1)
	b := NewTwoPhaseOffer(2)
	a.offer()
	a.commit()

	if tryCommitPair(a, b) {
		t.Fatalf("expected tryCommitPair to fail when a is already committed")
	}
	if b.committed() {
		t.Fatalf("b must not be committed when the pair fails")
	}
}

func TestTryCommitPair_ConcurrentRacersExactlyOneWins(t *testing.T) {
	// Many goroutines race to commit the same shared offer against distinct
	// private offers; exactly one should win tryCommitPair.
	shared := NewTwoPhaseOffer(0)

	const n = 50
	var wg sync.WaitGroup
	wins := make([]bool, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			private := NewTwoPhaseOffer(uint64(i + 1))
			wins[i] = tryCommitPair(shared, private)
		}(i)
	}
	wg.Wait()

	winCount := 0
	for _, w := range wins {
		if w {
			winCount++
		}
	}
	if winCount != 1 {
		t.Fatalf("expected exactly one winner, got %d", winCount)
	}
}

func TestLockOrdered_SameOfferLocksOnce(t *testing.T) {
	o := NewTwoPhaseOffer(1)
	unlock := lockOrdered(o, o)
	unlock()
}
