package cocol

import "errors"

// Namespace prefixes sentinel error messages so they are recognizable in logs
// aggregated across multiple libraries.
const Namespace = "cocol"

var (
	// ErrRetired is returned by an operation attempted against a channel that
	// has already been retired via Channel.Retire.
	ErrRetired = errors.New(Namespace + ": channel is retired")

	// ErrTimeout is returned when a request's deadline elapses before a
	// matching partner is found.
	ErrTimeout = errors.New(Namespace + ": request timed out")

	// ErrCancelled is returned when a request's context is cancelled before
	// a matching partner is found.
	ErrCancelled = errors.New(Namespace + ": request cancelled")

	// ErrNoPartner is the fallback error Choose/ChooseAsync reports when a
	// call ends with no member completed and no more specific cause
	// recorded. TryRead/TryWrite report a miss through their bool result.
	ErrNoPartner = errors.New(Namespace + ": no matching partner available")

	// ErrInvalidOperation is returned when a MultiChannelAccess set is
	// malformed, e.g. it contains a read and a write on the same channel.
	ErrInvalidOperation = errors.New(Namespace + ": invalid operation set")

	// ErrEmptySet is returned by NewSet when it is given no operations.
	ErrEmptySet = errors.New(Namespace + ": empty operation set")

	// ErrOverflow is returned when a channel's MaxPendingReaders or
	// MaxPendingWriters cap is reached:
	// under OverflowReject the new request is rejected immediately; under
	// OverflowFIFO/OverflowLIFO an existing queued waiter is evicted and
	// completes with ErrOverflow instead.
	ErrOverflow = errors.New(Namespace + ": waiter queue overflow")

	// ErrInvalidConfig is returned when channel or request options conflict
	// or carry out-of-range values.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

	// ErrClosed is returned by a ChannelScope such as registry.Registry once
	// it has been closed. (pool.Scope implementations return pool.ErrClosed.)
	ErrClosed = errors.New(Namespace + ": closed")

	// ErrNotFound is returned by ChannelScope.Resolve when a name was never
	// registered and no factory was supplied.
	ErrNotFound = errors.New(Namespace + ": channel not found")

	// ErrTypeMismatch is returned by ChannelScope.Resolve when a previously
	// registered name is resolved again with a different type tag.
	ErrTypeMismatch = errors.New(Namespace + ": channel type mismatch")
)

// RequestMetaError exposes correlation metadata for a failed request,
// the in-process counterpart of wire.FrameMetaError.
type RequestMetaError interface {
	error
	Unwrap() error
	RequestID() (uint64, bool)
	ChannelName() (string, bool)
}

type requestTaggedError struct {
	err  error
	id   uint64
	name string
}

func newRequestTaggedError(err error, id uint64, name string) error {
	if err == nil {
		return nil
	}
	return &requestTaggedError{err: err, id: id, name: name}
}

func (e *requestTaggedError) Error() string { return e.err.Error() }
func (e *requestTaggedError) Unwrap() error { return e.err }

func (e *requestTaggedError) RequestID() (uint64, bool) { return e.id, e.id != 0 }

func (e *requestTaggedError) ChannelName() (string, bool) { return e.name, e.name != "" }

// ExtractRequestID returns the request ID carried by err, if any.
func ExtractRequestID(err error) (uint64, bool) {
	var rme RequestMetaError
	if errors.As(err, &rme) {
		return rme.RequestID()
	}
	return 0, false
}

// ExtractChannelName returns the channel name carried by err, if any.
func ExtractChannelName(err error) (string, bool) {
	var rme RequestMetaError
	if errors.As(err, &rme) {
		return rme.ChannelName()
	}
	return "", false
}
