// Package wire defines a logical, transport-agnostic wire format for
// channel operations crossing a process boundary: a length-implicit,
// line-delimited JSON frame per request or response, the same framing
// style gazette's message package uses for its JSON-lines transport.
// Package wire does not open sockets itself; it encodes/decodes frames
// and dispatches them, leaving the actual transport (a net.Conn, a
// message queue, a test pipe) to the caller.
package wire

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a Frame represents.
type Kind string

const (
	// KindRequest carries an outbound read or write intent for a named
	// channel.
	KindRequest Kind = "request"
	// KindResponse carries the outcome of a previously sent KindRequest.
	KindResponse Kind = "response"
	// KindRetire announces that the sender has retired its local view of
	// a named channel.
	KindRetire Kind = "retire"
)

// Direction mirrors cocol's internal read/write distinction for a
// KindRequest frame.
type Direction string

const (
	DirRead  Direction = "read"
	DirWrite Direction = "write"
)

// Frame is the unit of exchange. Payload carries the read result or write
// value as already-marshalled JSON, so Frame itself stays independent of
// the channel's element type.
type Frame struct {
	Kind        Kind      `json:"kind"`
	SourceID    uuid.UUID `json:"source_id"`
	RequestID   uint64    `json:"request_id"`
	ChannelName string    `json:"channel"`
	Direction   Direction `json:"direction,omitempty"`
	Payload     []byte    `json:"payload,omitempty"`
	Err         string    `json:"err,omitempty"`
	SentAt      time.Time `json:"sent_at"`
}

// NewSourceID generates a new random peer identity for a Frame's SourceID.
// The Dispatcher does not assign or stamp a SourceID itself; the caller
// sets it on the frames it builds.
func NewSourceID() uuid.UUID {
	return uuid.New()
}
