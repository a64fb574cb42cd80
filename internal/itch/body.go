package itch

import "encoding/binary"

// MessageType names a supported tag (§4.2). Only the tags whose bodies
// carry event semantics get a dedicated field here; the fixed-width
// advance-only tags collapse into Pass.
type MessageType byte

const (
	TagAddOrder          MessageType = 'A'
	TagAddOrderMPID      MessageType = 'F'
	TagOrderExecuted     MessageType = 'E'
	TagOrderExecutedPx   MessageType = 'C'
	TagOrderCancelled    MessageType = 'X'
	TagOrderDelete       MessageType = 'D'
	TagOrderReplace      MessageType = 'U'
	TagSystemEvent       MessageType = 'S'
)

// passthroughWidths enumerates every fixed-width tag whose payload is
// advanced over but not interpreted (§4.2, out of scope per spec's explicit
// Non-goal carve-out). The file-open harness and CLI that select these are
// external collaborators; only the byte widths matter here.
var passthroughWidths = map[byte]int{
	'B': 8, 'H': 14, 'I': 39, 'J': 24, 'K': 17, 'L': 15, 'N': 9,
	'P': 33, 'Q': 29, 'R': 28, 'V': 24, 'W': 1, 'Y': 9,
}

// Side is the ITCH buy/sell indicator, ASCII 'B' or 'S' on the wire.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

func parseSide(b byte) (Side, error) {
	switch b {
	case byte(Buy), byte(Sell):
		return Side(b), nil
	default:
		return 0, ErrInvalidSide
	}
}

// SystemEventCode enumerates the tag-S event codes named in original_source's
// body.rs: start/end of messages, of system hours, and of market hours.
type SystemEventCode byte

const (
	SystemEventStartOfMessages   SystemEventCode = 'O'
	SystemEventStartOfSystemHrs  SystemEventCode = 'S'
	SystemEventStartOfMarketHrs  SystemEventCode = 'Q'
	SystemEventEndOfMarketHrs    SystemEventCode = 'M'
	SystemEventEndOfSystemHrs    SystemEventCode = 'E'
	SystemEventEndOfMessages     SystemEventCode = 'C'
)

func parseSystemEventCode(b byte) (SystemEventCode, error) {
	switch SystemEventCode(b) {
	case SystemEventStartOfMessages, SystemEventStartOfSystemHrs, SystemEventStartOfMarketHrs,
		SystemEventEndOfMarketHrs, SystemEventEndOfSystemHrs, SystemEventEndOfMessages:
		return SystemEventCode(b), nil
	default:
		return 0, ErrInvalidSystemEvent
	}
}

func parsePrintable(b byte) (bool, error) {
	switch b {
	case 'Y':
		return true, nil
	case 'N':
		return false, nil
	default:
		return false, ErrInvalidPrintable
	}
}

// Stock is a fixed 8-character, space-padded ticker. It is copied into the
// event rather than borrowed from the read buffer: the buffer is reused
// across refills and an event may outlive the frame it was parsed from.
type Stock [8]byte

func (s Stock) String() string {
	n := len(s)
	for n > 0 && s[n-1] == ' ' {
		n--
	}
	return string(s[:n])
}

func readStock(b []byte) Stock {
	var s Stock
	copy(s[:], b)
	return s
}

// Header carries the fields common to every framed message (§4.2).
type Header struct {
	StockLocate     uint16
	TrackingNumber  uint16
	Timestamp       uint64 // nanoseconds since midnight, from the be48 field
}

// Body is the parsed, tag-specific payload of a message. Concrete types
// below are the set enumerated in the supported-tag table; Pass covers
// every advance-only tag.
type Body interface {
	messageType() MessageType
}

type AddOrder struct {
	Reference uint64
	Side      Side
	Shares    uint32
	Stock     Stock
	Price     uint32
}

func (AddOrder) messageType() MessageType { return TagAddOrder }

type AddOrderMPID struct {
	AddOrder
	MPID [4]byte
}

func (AddOrderMPID) messageType() MessageType { return TagAddOrderMPID }

type OrderExecuted struct {
	Reference     uint64
	ExecutedShares uint32
	MatchNumber   uint64
}

func (OrderExecuted) messageType() MessageType { return TagOrderExecuted }

type OrderExecutedWithPrice struct {
	OrderExecuted
	Printable bool
	Price     uint32
}

func (OrderExecutedWithPrice) messageType() MessageType { return TagOrderExecutedPx }

type OrderCancelled struct {
	Reference        uint64
	CancelledShares  uint32
}

func (OrderCancelled) messageType() MessageType { return TagOrderCancelled }

type OrderDelete struct {
	Reference uint64
}

func (OrderDelete) messageType() MessageType { return TagOrderDelete }

type OrderReplace struct {
	OldReference uint64
	NewReference uint64
	Shares       uint32
	Price        uint32
}

func (OrderReplace) messageType() MessageType { return TagOrderReplace }

type SystemEvent struct {
	Code SystemEventCode
}

func (SystemEvent) messageType() MessageType { return TagSystemEvent }

// Pass is emitted for every fixed-width tag the spec declares out of scope
// for interpretation: the body is skipped for framing purposes only.
type Pass struct {
	Tag MessageType
}

func (p Pass) messageType() MessageType { return p.Tag }

// parseBody dispatches on tag and decodes exactly body's declared width.
// body must already hold at least that many bytes; the caller (stream.go)
// is responsible for the "need more bytes" gate before calling this.
func parseBody(tag byte, body []byte) (Body, error) {
	switch tag {
	case byte(TagAddOrder):
		return parseAddOrder(body)
	case byte(TagAddOrderMPID):
		return parseAddOrderMPID(body)
	case byte(TagOrderExecuted):
		return parseOrderExecuted(body), nil
	case byte(TagOrderExecutedPx):
		return parseOrderExecutedWithPrice(body)
	case byte(TagOrderCancelled):
		return OrderCancelled{
			Reference:       binary.BigEndian.Uint64(body[0:8]),
			CancelledShares: binary.BigEndian.Uint32(body[8:12]),
		}, nil
	case byte(TagOrderDelete):
		return OrderDelete{Reference: binary.BigEndian.Uint64(body[0:8])}, nil
	case byte(TagOrderReplace):
		return OrderReplace{
			OldReference: binary.BigEndian.Uint64(body[0:8]),
			NewReference: binary.BigEndian.Uint64(body[8:16]),
			Shares:       binary.BigEndian.Uint32(body[16:20]),
			Price:        binary.BigEndian.Uint32(body[20:24]),
		}, nil
	case byte(TagSystemEvent):
		code, err := parseSystemEventCode(body[0])
		if err != nil {
			return nil, err
		}
		return SystemEvent{Code: code}, nil
	default:
		if _, ok := passthroughWidths[tag]; ok {
			return Pass{Tag: MessageType(tag)}, nil
		}
		return nil, ErrUnknownTag
	}
}

func parseAddOrder(body []byte) (AddOrder, error) {
	side, err := parseSide(body[8])
	if err != nil {
		return AddOrder{}, err
	}
	return AddOrder{
		Reference: binary.BigEndian.Uint64(body[0:8]),
		Side:      side,
		Shares:    binary.BigEndian.Uint32(body[9:13]),
		Stock:     readStock(body[13:21]),
		Price:     binary.BigEndian.Uint32(body[21:25]),
	}, nil
}

func parseAddOrderMPID(body []byte) (AddOrderMPID, error) {
	base, err := parseAddOrder(body[:25])
	if err != nil {
		return AddOrderMPID{}, err
	}
	var mpid [4]byte
	copy(mpid[:], body[25:29])
	return AddOrderMPID{AddOrder: base, MPID: mpid}, nil
}

func parseOrderExecuted(body []byte) OrderExecuted {
	return OrderExecuted{
		Reference:      binary.BigEndian.Uint64(body[0:8]),
		ExecutedShares: binary.BigEndian.Uint32(body[8:12]),
		MatchNumber:    binary.BigEndian.Uint64(body[12:20]),
	}
}

func parseOrderExecutedWithPrice(body []byte) (OrderExecutedWithPrice, error) {
	base := parseOrderExecuted(body[:20])
	printable, err := parsePrintable(body[20])
	if err != nil {
		return OrderExecutedWithPrice{}, err
	}
	return OrderExecutedWithPrice{
		OrderExecuted: base,
		Printable:     printable,
		Price:         binary.BigEndian.Uint32(body[21:25]),
	}, nil
}

// bodyWidth returns the exact number of body bytes the given tag requires,
// and whether the tag is recognized at all.
func bodyWidth(tag byte) (int, bool) {
	switch tag {
	case byte(TagAddOrder):
		return 25, true
	case byte(TagAddOrderMPID):
		return 29, true
	case byte(TagOrderExecuted):
		return 20, true
	case byte(TagOrderExecutedPx):
		return 25, true
	case byte(TagOrderCancelled):
		return 12, true
	case byte(TagOrderDelete):
		return 8, true
	case byte(TagOrderReplace):
		return 24, true
	case byte(TagSystemEvent):
		return 1, true
	default:
		w, ok := passthroughWidths[tag]
		return w, ok
	}
}
