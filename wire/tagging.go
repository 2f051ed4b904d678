package wire

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// FrameMetaError exposes the peer and request correlating a remote failure,
// mirroring cocol's own RequestMetaError but for errors that crossed a wire
// boundary and so need a SourceID as well as a RequestID.
type FrameMetaError interface {
	error
	Unwrap() error
	SourceID() (uuid.UUID, bool)
	RequestID() (uint64, bool)
}

type frameTaggedError struct {
	err       error
	sourceID  uuid.UUID
	requestID uint64
}

// Tag wraps err with the peer and request identity from f, suitable for a
// Handler returning an error frame or a caller receiving one.
func Tag(err error, f Frame) error {
	if err == nil {
		return nil
	}
	return &frameTaggedError{err: err, sourceID: f.SourceID, requestID: f.RequestID}
}

func (e *frameTaggedError) Error() string { return e.err.Error() }
func (e *frameTaggedError) Unwrap() error { return e.err }

func (e *frameTaggedError) SourceID() (uuid.UUID, bool) {
	return e.sourceID, e.sourceID != uuid.Nil
}

func (e *frameTaggedError) RequestID() (uint64, bool) { return e.requestID, true }

func (e *frameTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "frame(source=%s,request=%d): %+v", e.sourceID, e.requestID, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractSourceID returns the peer identity tagged on err, if any.
func ExtractSourceID(err error) (uuid.UUID, bool) {
	var fme FrameMetaError
	if errors.As(err, &fme) {
		return fme.SourceID()
	}
	return uuid.Nil, false
}

// ExtractFrameRequestID returns the request ID tagged on err, if any.
func ExtractFrameRequestID(err error) (uint64, bool) {
	var fme FrameMetaError
	if errors.As(err, &fme) {
		return fme.RequestID()
	}
	return 0, false
}

// ErrFrame converts a response Frame carrying a non-empty Err field into a
// tagged error, or returns nil if the frame reports success.
func ErrFrame(f Frame) error {
	if f.Err == "" {
		return nil
	}
	return Tag(errors.New(f.Err), f)
}
