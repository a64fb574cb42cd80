package book

// Price is a signed fixed-point price in ten-thousandths of a currency
// unit. By convention, bids are stored as the positive magnitude and asks
// as its negation: a single sorted container can then mix or separate
// sides purely by comparing signed values, and the most aggressive level on
// either side always sorts to the same end of its container.
type Price int32

// NewPrice builds a signed Price from the unsigned wire magnitude and the
// order's side. sign(price) == +1 iff the originating order was a buy.
func NewPrice(magnitude uint32, isBid bool) Price {
	if isBid {
		return Price(magnitude)
	}
	return -Price(magnitude)
}

// IsBid reports whether this price belongs to the bid side. Zero is never a
// legal resting price (see Level's zero value); callers must not rely on
// IsBid to distinguish a real ask from an unset Price.
func (p Price) IsBid() bool {
	return p > 0
}

// Abs returns the unsigned wire magnitude.
func (p Price) Abs() int32 {
	if p < 0 {
		return int32(-p)
	}
	return int32(p)
}
