package cocol

import (
	"context"
	"testing"
	"time"
)

func TestNeedsWatcher(t *testing.T) {
	if needsWatcher(nil, 0) {
		t.Fatalf("no timeout and no context should not need a watcher")
	}
	if !needsWatcher(nil, time.Second) {
		t.Fatalf("a positive timeout always needs a watcher")
	}
	if needsWatcher(context.Background(), 0) {
		t.Fatalf("context.Background() has a nil Done() channel, no watcher needed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !needsWatcher(ctx, 0) {
		t.Fatalf("a cancellable context needs a watcher even without a timeout")
	}
}

func TestWatchTimeout_FiresOnTimeout(t *testing.T) {
	ch := NewChannel[int]()
	r := newRequest[int](dirRead, 0)
	ch.arm(r)

	watchTimeout(ch, r, context.Background(), 10*time.Millisecond)

	select {
	case <-r.doneSignal:
	default:
		t.Fatalf("expected request to be completed after watchTimeout returns")
	}
	if r.err != ErrTimeout {
		t.Fatalf("err = %v, want ErrTimeout", r.err)
	}
}

func TestWatchTimeout_FiresOnCancellation(t *testing.T) {
	ch := NewChannel[int]()
	r := newRequest[int](dirRead, 0)
	ch.arm(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	watchTimeout(ch, r, ctx, 0)

	if r.err != ErrCancelled {
		t.Fatalf("err = %v, want ErrCancelled", r.err)
	}
}

func TestWatchTimeout_NoopIfAlreadyMatched(t *testing.T) {
	ch := NewChannel[int]()
	r := newRequest[int](dirRead, 0)
	r.complete(5, nil)

	watchTimeout(ch, r, context.Background(), 10*time.Millisecond)

	if r.err != nil {
		t.Fatalf("err = %v, want nil (already completed before watcher fired)", r.err)
	}
}
