package wire

import (
	"bufio"
	"encoding/json"
)

// Codec marshals and unmarshals Frames to and from a byte stream. It mirrors
// the three-method shape gazette's message.Framing uses for its line-delimited
// encodings: Marshal writes one frame, Unpack reads exactly the bytes of the
// next frame without decoding them, and Unmarshal decodes those bytes.
// Splitting Unpack from Unmarshal lets a Dispatcher peek at frame boundaries
// (for logging or reordering) before paying the decode cost.
type Codec interface {
	Marshal(f Frame, bw *bufio.Writer) error
	Unpack(br *bufio.Reader) ([]byte, error)
	Unmarshal(line []byte) (Frame, error)
}

// JSONCodec is the default Codec: one JSON object per line.
var JSONCodec Codec = new(jsonCodec)

type jsonCodec struct{}

func (*jsonCodec) Marshal(f Frame, bw *bufio.Writer) error {
	if err := json.NewEncoder(bw).Encode(f); err != nil {
		return err
	}
	return bw.Flush()
}

func (*jsonCodec) Unpack(br *bufio.Reader) ([]byte, error) {
	// ReadBytes can return a final partial line alongside io.EOF when the
	// stream ends without a trailing newline; the caller decides whether
	// that trailing fragment is worth decoding.
	return br.ReadBytes('\n')
}

func (*jsonCodec) Unmarshal(line []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(line, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}
