package itch

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
)

// BufSize is the fixed capacity of a MessageStream's internal buffer (§4.1).
const BufSize = 64 * 1024

// MessageStream is a pull-based iterator of typed ITCH messages over an
// opaque io.Reader. Call Next repeatedly; io.EOF means the stream is
// exhausted cleanly, any other error is returned exactly once before the
// stream settles into io.EOF permanently (§4.1's "one error, then stop").
type MessageStream struct {
	StreamID uuid.UUID

	reader   io.Reader
	buf      [BufSize]byte
	readPos  int
	writePos int

	errored bool

	BytesRead    int
	ReadCalls    int
	MessageCount int
}

// NewMessageStream wraps r. Each stream is minted a random id so that
// diagnostics from concurrent or sequential replay runs can be told apart.
func NewMessageStream(r io.Reader) *MessageStream {
	return &MessageStream{
		StreamID: uuid.New(),
		reader:   r,
	}
}

// Next returns the next fully-parsed message, or an error. Once a
// structural decode error or an unexpected EOF has been reported, every
// subsequent call returns io.EOF.
func (s *MessageStream) Next() (*Message, error) {
	if s.errored {
		return nil, io.EOF
	}

	for {
		msg, consumed, err := s.tryParse()
		if err == nil {
			s.readPos += consumed
			s.MessageCount++
			return msg, nil
		}
		if err != errNeedMore {
			s.errored = true
			return nil, s.decodeErr(err)
		}

		n, err := s.fetchMore()
		if err != nil {
			s.errored = true
			return nil, err
		}
		if n == 0 {
			if s.readPos == s.writePos {
				return nil, io.EOF
			}
			s.errored = true
			return nil, s.decodeErr(io.ErrUnexpectedEOF)
		}
	}
}

func (s *MessageStream) decodeErr(cause error) error {
	return &DecodeError{
		StreamID: s.StreamID,
		Context:  contextWindow(s.buf[s.readPos:s.writePos]),
		Cause:    cause,
	}
}

// tryParse attempts to decode one frame from the unconsumed region of the
// buffer. It returns errNeedMore if the buffer doesn't yet hold a complete
// frame, never advancing readPos itself — the caller does that once
// satisfied the parse succeeded.
func (s *MessageStream) tryParse() (*Message, int, error) {
	avail := s.buf[s.readPos:s.writePos]

	// u16 length prefix, used only to confirm framing sufficiency (§4.2):
	// until the prefix and the 2+length bytes it declares are buffered, the
	// frame needs more bytes.
	if len(avail) < 2 {
		return nil, 0, errNeedMore
	}
	length := int(binary.BigEndian.Uint16(avail[0:2]))
	if len(avail) < 2+length {
		return nil, 0, errNeedMore
	}

	// Everything from here on is a sub-slice of frame, which is already
	// bounded by the wire-declared length confirmed present above: no
	// amount of refilling from the reader can grow it. A shortfall past
	// this point is a malformed frame, not "need more bytes" — it must
	// surface as a decode error, never spin on errNeedMore.
	frame := avail[2 : 2+length]
	if len(frame) < 1 {
		return nil, 0, ErrFrameTooShort
	}
	tag := frame[0]
	rest := frame[1:]

	if len(rest) < 2+2+6 {
		return nil, 0, ErrFrameTooShort
	}
	stockLocate := binary.BigEndian.Uint16(rest[0:2])
	trackingNumber := binary.BigEndian.Uint16(rest[2:4])
	timestamp := be48(rest[4:10])
	body := rest[10:]

	width, ok := bodyWidth(tag)
	if !ok {
		return nil, 0, ErrUnknownTag
	}
	if len(body) < width {
		if tag == byte(TagAddOrderMPID) {
			return nil, 0, ErrMissingMPID
		}
		return nil, 0, ErrFrameTooShort
	}

	parsed, err := parseBody(tag, body[:width])
	if err != nil {
		return nil, 0, err
	}

	msg := &Message{
		Header: Header{
			StockLocate:    stockLocate,
			TrackingNumber: trackingNumber,
			Timestamp:      timestamp,
		},
		Body: parsed,
	}
	return msg, 2 + length, nil
}

// fetchMore compacts the buffer if needed and issues one read into the
// free space at its tail, returning the number of bytes appended.
func (s *MessageStream) fetchMore() (int, error) {
	s.ReadCalls++

	if s.writePos == BufSize {
		tail := s.writePos - s.readPos
		if s.readPos <= BufSize/2 {
			panic("itch: compaction precondition violated: read cursor has not advanced past buffer midpoint")
		}
		if tail > 100 {
			panic("itch: compaction precondition violated: unconsumed tail exceeds design bound")
		}
		copy(s.buf[:tail], s.buf[s.readPos:s.writePos])
		s.readPos = 0
		s.writePos = tail
	}

	n, err := s.reader.Read(s.buf[s.writePos:])
	if err != nil && err != io.EOF {
		return 0, err
	}
	s.writePos += n
	s.BytesRead += n
	if err == io.EOF {
		return n, nil
	}
	return n, nil
}

// be48 reads an unsigned 48-bit big-endian integer from the first 6 bytes
// of b (§4.2).
func be48(b []byte) uint64 {
	_ = b[5]
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}
