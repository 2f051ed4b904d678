package wire

import (
	"context"
	"testing"
	"time"

	"github.com/cocol-go/cocol/pool"
)

// wireLoopback connects two Dispatchers' send functions directly to each
// other's inbound channel, simulating a transport without any real socket.
func wireLoopback() (aOut chan Frame, bOut chan Frame) {
	return make(chan Frame, 16), make(chan Frame, 16)
}

func TestDispatcher_RequestResponseRoundTrip(t *testing.T) {
	aToB, bToA := wireLoopback()

	echo := func(ctx context.Context, f Frame) Frame {
		return Frame{Kind: KindResponse, RequestID: f.RequestID, ChannelName: f.ChannelName, Payload: f.Payload}
	}

	b := NewDispatcher(func(f Frame) error { bToA <- f; return nil }, echo, pool.NewUnbounded())
	a := NewDispatcher(func(f Frame) error { aToB <- f; return nil }, nil, pool.NewUnbounded())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.Run(ctx, bToA)
	go b.Run(ctx, aToB)

	resp, err := a.Request(ctx, Frame{Kind: KindRequest, RequestID: 1, ChannelName: "nums", Payload: []byte(`5`)})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp.RequestID != 1 || string(resp.Payload) != `5` {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDispatcher_RequestTimesOutWithoutResponse(t *testing.T) {
	aToB := make(chan Frame, 16)
	a := NewDispatcher(func(f Frame) error { aToB <- f; return nil }, nil, pool.NewUnbounded())

	ctx := context.Background()
	reqCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err := a.Request(reqCtx, Frame{Kind: KindRequest, RequestID: 9})
	if err == nil {
		t.Fatalf("expected timeout error, got nil")
	}
}

func TestDispatcher_CloseFailsPendingRequests(t *testing.T) {
	aToB := make(chan Frame, 16)
	a := NewDispatcher(func(f Frame) error { aToB <- f; return nil }, nil, pool.NewUnbounded())

	ctx := context.Background()
	inbox := make(chan Frame)
	go a.Run(ctx, inbox)

	done := make(chan Frame, 1)
	go func() {
		resp, _ := a.Request(ctx, Frame{Kind: KindRequest, RequestID: 7})
		done <- resp
	}()

	time.Sleep(10 * time.Millisecond)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case resp := <-done:
		if resp.Err == "" {
			t.Fatalf("expected failed response after Close, got %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for pending request to fail on Close")
	}
}

func TestDispatcher_UnknownResponseIsDroppedNotPanicked(t *testing.T) {
	d := NewDispatcher(func(Frame) error { return nil }, nil, pool.NewUnbounded())
	inbox := make(chan Frame, 1)
	ctx, cancel := context.WithCancel(context.Background())

	go d.Run(ctx, inbox)
	inbox <- Frame{Kind: KindResponse, RequestID: 404}
	time.Sleep(10 * time.Millisecond)
	cancel()
}
