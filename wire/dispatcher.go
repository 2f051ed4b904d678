package wire

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cocol-go/cocol/pool"
)

// Handler processes an inbound KindRequest Frame from a peer and produces the
// KindResponse Frame to send back.
type Handler func(ctx context.Context, f Frame) Frame

// Dispatcher demultiplexes frames arriving on a single inbound stream:
// responses are routed back to the goroutine awaiting them by RequestID,
// and requests are handed to a Handler running on a pool.Scope, the same
// split the teacher's dispatcher/worker pair used between reading work off
// a channel and executing it concurrently.
type Dispatcher struct {
	send    func(Frame) error
	handler Handler
	scope   pool.Scope

	log *logrus.Entry

	mu      sync.Mutex
	pending map[uint64]chan Frame

	errOnce sync.Once
	errCh   chan error
	cancel  context.CancelFunc

	closeOnce sync.Once
}

// NewDispatcher constructs a Dispatcher. send is called to deliver an
// outbound Frame (request or response) on the underlying transport; it must
// be safe for concurrent use. scope bounds how many inbound requests run
// concurrently; pass pool.NewUnbounded() for no limit.
func NewDispatcher(send func(Frame) error, handler Handler, scope pool.Scope) *Dispatcher {
	return &Dispatcher{
		send:    send,
		handler: handler,
		scope:   scope,
		log:     logrus.WithField("component", "cocol.wire.dispatcher"),
		pending: make(map[uint64]chan Frame),
		errCh:   make(chan error, 1),
	}
}

// Run consumes frames from inbox until it is closed or ctx is cancelled.
// Exactly one fatal error, if any, is reported via Errors(); later errors
// are logged and dropped, mirroring the teacher's forward-first-error rule.
func (d *Dispatcher) Run(ctx context.Context, inbox <-chan Frame) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-inbox:
			if !ok {
				return
			}
			d.route(ctx, f)
		}
	}
}

func (d *Dispatcher) route(ctx context.Context, f Frame) {
	switch f.Kind {
	case KindResponse:
		d.mu.Lock()
		waiter, ok := d.pending[f.RequestID]
		if ok {
			delete(d.pending, f.RequestID)
		}
		d.mu.Unlock()
		if !ok {
			d.log.WithField("request_id", f.RequestID).Warn("response for unknown request")
			return
		}
		waiter <- f
	case KindRequest:
		if d.handler == nil {
			return
		}
		err := d.scope.Go(ctx, func(ctx context.Context) {
			resp := d.handler(ctx, f)
			if err := d.send(resp); err != nil {
				d.reportError(err)
			}
		})
		if err != nil {
			d.reportError(err)
		}
	case KindRetire:
		if d.handler != nil {
			d.handler(ctx, f)
		}
	}
}

func (d *Dispatcher) reportError(err error) {
	d.errOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		select {
		case d.errCh <- err:
		default:
		}
	})
	d.log.WithError(err).Warn("dispatcher error")
}

// Errors reports at most one fatal error encountered while running.
func (d *Dispatcher) Errors() <-chan error { return d.errCh }

// Close runs the shutdown sequence exactly once: cancel Run's context so no
// new frames are routed, wait for in-flight Handler goroutines to finish on
// the pool.Scope, then fail every request still awaiting a response. This
// mirrors the teacher's lifecycle coordinator's ordered cancel-drain-close
// sequence, collapsed into one method since Dispatcher owns every stage
// itself instead of wiring them from an owner.
func (d *Dispatcher) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if d.cancel != nil {
			d.cancel()
		}
		err = d.scope.Close()

		d.mu.Lock()
		pending := d.pending
		d.pending = make(map[uint64]chan Frame)
		d.mu.Unlock()
		for id, waiter := range pending {
			waiter <- Frame{Kind: KindResponse, RequestID: id, Err: "dispatcher closed"}
		}
	})
	return err
}

// Request sends f (a KindRequest frame) and blocks until the matching
// KindResponse frame arrives or ctx is cancelled. Close answers a request
// still pending with a failed response frame; Run returning on its own
// does not unblock it.
func (d *Dispatcher) Request(ctx context.Context, f Frame) (Frame, error) {
	waiter := make(chan Frame, 1)
	d.mu.Lock()
	d.pending[f.RequestID] = waiter
	d.mu.Unlock()

	if err := d.send(f); err != nil {
		d.mu.Lock()
		delete(d.pending, f.RequestID)
		d.mu.Unlock()
		return Frame{}, err
	}

	select {
	case <-ctx.Done():
		d.mu.Lock()
		delete(d.pending, f.RequestID)
		d.mu.Unlock()
		return Frame{}, ctx.Err()
	case resp := <-waiter:
		return resp, nil
	}
}
