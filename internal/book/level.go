package book

// Level is a single price point in a book: the price itself plus the sum
// of resting quantities of every order currently at that price.
type Level struct {
	Price Price
	Size  Quantity
}

// Incr adds size to the level's aggregate.
func (l *Level) Incr(size Quantity) {
	l.Size = l.Size.Add(size)
}

// Decr removes size from the level's aggregate. Panics on underflow (see
// Quantity.Sub).
func (l *Level) Decr(size Quantity) {
	l.Size = l.Size.Sub(size)
}

// PriceLevel pairs a price with its pool-allocated level id. Price is
// duplicated here, rather than looked up through the pool, so that the
// insertion-point scan in OrderBook.Add touches only this slice — one
// cache line per probe — and never chases a pointer into the pool.
type PriceLevel struct {
	Price   Price
	LevelID LevelId
}

// SortedLevels is a per-side sequence of PriceLevel entries kept in strict
// price order. Because bids carry positive prices and asks negative, the
// most aggressive level on either side is always at the tail: index len-1.
// A flat, linearly-scanned slice outperforms a balanced tree at the
// realistic cardinalities here (tens to hundreds of distinct prices per
// book), which is why this is a slice and not a tree — see DESIGN.md for
// where this project does reach for a tree (the manager's active-book
// index) instead.
type SortedLevels []PriceLevel

// Len reports the number of distinct price levels on this side.
func (s SortedLevels) Len() int {
	return len(s)
}

// At returns a pointer to the entry at idx for in-place mutation.
func (s SortedLevels) At(idx int) *PriceLevel {
	return &s[idx]
}

// InsertAt inserts px at idx, shifting later entries up by one.
func (s *SortedLevels) InsertAt(idx int, px PriceLevel) {
	*s = append(*s, PriceLevel{})
	copy((*s)[idx+1:], (*s)[idx:])
	(*s)[idx] = px
}

// Remove deletes the single entry matching price. By invariant, a price
// appears at most once per side.
func (s *SortedLevels) Remove(price Price) {
	for i, px := range *s {
		if px.Price == price {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}
