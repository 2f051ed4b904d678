package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestUnbounded_RunsAllAndCloseWaits(t *testing.T) {
	s := NewUnbounded()
	var n int32
	for i := 0; i < 20; i++ {
		if err := s.Go(context.Background(), func(context.Context) {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&n, 1)
		}); err != nil {
			t.Fatalf("Go: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := atomic.LoadInt32(&n); got != 20 {
		t.Fatalf("completed = %d, want 20", got)
	}
	if err := s.Go(context.Background(), func(context.Context) {}); err != ErrClosed {
		t.Fatalf("Go after Close = %v, want ErrClosed", err)
	}
}

func TestCapped_NeverExceedsLimit(t *testing.T) {
	s := NewCapped(2)
	var cur, max int32

	observe := func() {
		for {
			c := atomic.LoadInt32(&cur)
			m := atomic.LoadInt32(&max)
			if c <= m {
				return
			}
			if atomic.CompareAndSwapInt32(&max, m, c) {
				return
			}
		}
	}

	for i := 0; i < 10; i++ {
		if err := s.Go(context.Background(), func(context.Context) {
			atomic.AddInt32(&cur, 1)
			observe()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&cur, -1)
		}); err != nil {
			t.Fatalf("Go: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := atomic.LoadInt32(&max); got > 2 {
		t.Fatalf("observed concurrency = %d, want <= 2", got)
	}
}

func TestCapped_GoRespectsContextCancellation(t *testing.T) {
	s := NewCapped(1)
	block := make(chan struct{})
	_ = s.Go(context.Background(), func(context.Context) { <-block })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Go(ctx, func(context.Context) {})
	if err == nil {
		t.Fatalf("expected Go to fail while capacity is exhausted and ctx expires")
	}
	close(block)
	_ = s.Close()
}
