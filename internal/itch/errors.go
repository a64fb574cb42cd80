package itch

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// errNeedMore signals that the buffer does not yet hold a complete frame.
// It never escapes the stream: Next retries after a refill.
var errNeedMore = errors.New("itch: need more bytes")

// Sentinel errors. DecodeError.Unwrap exposes one of the decode causes
// below (or io.ErrUnexpectedEOF for a truncated final frame) so callers can
// distinguish failure modes with errors.Is. ErrOrderIdOverflow is not a
// decode cause: it is returned by consumers that narrow references to 32
// bits (see cmd/itchreplay).
var (
	ErrUnknownTag          = errors.New("itch: unknown message tag")
	ErrInvalidSide         = errors.New("itch: invalid side byte")
	ErrInvalidPrintable    = errors.New("itch: invalid printable byte")
	ErrInvalidSystemEvent  = errors.New("itch: invalid system event code")
	ErrMissingMPID         = errors.New("itch: add order with mpid is missing its mpid field")
	ErrOrderIdOverflow     = errors.New("itch: order reference does not fit in 32 bits")
	ErrFrameTooShort       = errors.New("itch: frame too short for its tag's declared body width")
)

// DecodeError is the single diagnostic the stream surfaces for a structural
// parse failure (§4.1, §7): an unknown tag, an invalid enum byte, or a
// malformed fixed field; it also reports a reader EOF in the middle of a
// frame. It carries up to 20 bytes of buffer context starting at the first
// unconsumed byte (the failing frame's length prefix), and the id of the stream that
// produced it so concurrent or sequential replay runs can be told apart in
// logs.
type DecodeError struct {
	StreamID uuid.UUID
	Context  []byte
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("itch: decode error (stream %s): %v (context: % x)", e.StreamID, e.Cause, e.Context)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// contextWindow copies up to 20 bytes starting at buf's head, for embedding
// in a DecodeError. Copying (rather than slicing) is deliberate: the
// underlying buffer is reused on the next refill, and the error may outlive
// that refill.
func contextWindow(buf []byte) []byte {
	n := len(buf)
	if n > 20 {
		n = 20
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out
}
