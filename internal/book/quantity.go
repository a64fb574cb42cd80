package book

// Quantity is a resting share count. Saturating semantics are not required
// (§3); what the engine guarantees instead is that a decrement is never
// applied past zero — callers are expected to check preconditions before
// calling Sub, and Sub panics if one slipped through, since an aggregate
// going negative is a fatal invariant violation (§7), not a condition a
// caller can recover from.
type Quantity uint32

// Add returns q + other.
func (q Quantity) Add(other Quantity) Quantity {
	return q + other
}

// Sub returns q - other. Panics if other > q.
func (q Quantity) Sub(other Quantity) Quantity {
	if other > q {
		panic("book: quantity underflow")
	}
	return q - other
}

// IsZero reports whether the quantity has been fully drained.
func (q Quantity) IsZero() bool {
	return q == 0
}
