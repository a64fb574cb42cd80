package book

// OrderBook holds the two sorted price-level sequences for one instrument.
// The LevelPool backing it is shared across every OrderBook owned by an
// OrderBookManager (§3: "a single, book-independent meaning" for LevelIds),
// so OrderBook itself only borrows a pointer to it.
type OrderBook struct {
	Bids SortedLevels
	Asks SortedLevels
	pool *LevelPool
}

// NewOrderBook constructs an empty book backed by the given shared pool.
func NewOrderBook(pool *LevelPool) *OrderBook {
	return &OrderBook{pool: pool}
}

func (b *OrderBook) sideFor(price Price) *SortedLevels {
	if price.IsBid() {
		return &b.Bids
	}
	return &b.Asks
}

// Add attaches order to the level at price, allocating a fresh level if
// none exists yet at that price, and increments the level's aggregate by
// qty. order.LevelID is populated as a side effect.
//
// The insertion point is found scanning tail-to-head: empirically, new
// orders land near the top of book, so starting at the most aggressive
// level and walking toward the least aggressive one keeps the average scan
// depth O(1) even though the structure is a flat slice (§4.5).
func (b *OrderBook) Add(order *Order, price Price, qty Quantity) {
	levels := b.sideFor(price)

	insertAt := levels.Len()
	found := false
	for insertAt > 0 {
		insertAt--
		cur := levels.At(insertAt)
		if cur.Price == price {
			order.LevelID = cur.LevelID
			found = true
			break
		}
		if cur.Price < price {
			insertAt++
			break
		}
	}

	if !found {
		id := b.pool.Alloc()
		b.pool.Set(id, Level{Price: price, Size: 0})
		order.LevelID = id
		levels.InsertAt(insertAt, PriceLevel{Price: price, LevelID: id})
	}

	b.pool.MustGet(order.LevelID).Incr(qty)
}

// Reduce decrements the aggregate at order's level by qty. Precondition:
// qty <= the level's current size (checked by Quantity.Sub, which panics
// on violation).
func (b *OrderBook) Reduce(order *Order, qty Quantity) {
	b.pool.MustGet(order.LevelID).Decr(qty)
}

// Remove decrements the aggregate by order's full remaining quantity; if
// that empties the level, the level's PriceLevel entry is dropped from its
// side and the LevelId is returned to the pool in the same step (I5).
func (b *OrderBook) Remove(order *Order) {
	level := b.pool.MustGet(order.LevelID)
	level.Decr(order.Qty)

	if level.Size.IsZero() {
		price := level.Price
		b.sideFor(price).Remove(price)
		b.pool.Free(order.LevelID)
	}
}
