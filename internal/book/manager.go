package book

import (
	"fmt"

	"github.com/tidwall/btree"
)

// OrderBookManager owns the shared level pool, the order-id index, and a
// fixed-capacity array of per-instrument books indexed directly by BookId
// (§3, §4.6). It is the only mutator of book state; all five ITCH-derived
// operations (Add, Cancel, Execute, Delete, Replace) go through it.
type OrderBookManager struct {
	books [MaxBooks]*OrderBook
	pool  *LevelPool
	oids  *OidMap

	// activeBooks is a secondary index, never consulted on the hot path: a
	// sorted set of BookIds that have seen at least one Add this session,
	// used only to support ordered iteration for diagnostics/reporting
	// (ActiveBooks). The books array above remains the sole source of
	// truth for book state and lookup.
	activeBooks *btree.BTreeG[BookId]
}

// NewManager constructs an empty manager with the default preallocation
// sizes (§6).
func NewManager() *OrderBookManager {
	return &OrderBookManager{
		pool: NewLevelPool(MaxLevels),
		oids: NewOidMap(),
		activeBooks: btree.NewBTreeG(func(a, b BookId) bool {
			return a < b
		}),
	}
}

func (m *OrderBookManager) bookFor(id BookId) *OrderBook {
	if m.books[id] == nil {
		m.books[id] = NewOrderBook(m.pool)
		m.activeBooks.Set(id)
	}
	return m.books[id]
}

// ActiveBooks returns every BookId that has had at least one order added
// this session, in ascending order. It exists purely for end-of-run
// reporting (see cmd/itchreplay) and never participates in the add/cancel/
// execute/delete/replace hot path.
func (m *OrderBookManager) ActiveBooks() []BookId {
	ids := make([]BookId, 0, m.activeBooks.Len())
	m.activeBooks.Scan(func(id BookId) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Book returns the book for id, or nil if no order has ever targeted it.
func (m *OrderBookManager) Book(id BookId) *OrderBook {
	return m.books[id]
}

// AddOrder composes the signed Price from the wire magnitude and side, then
// adds a new resting order to book_id, creating the book on first use.
func (m *OrderBookManager) AddOrder(orderID OrderId, bookID BookId, qty Quantity, priceRaw uint32, isBid bool) {
	price := NewPrice(priceRaw, isBid)

	order := Order{BookID: bookID, Qty: qty}
	m.bookFor(bookID).Add(&order, price, qty)
	m.oids.Insert(orderID, order)
}

// RemoveOrder fully removes a resting order. A no-op if orderID is absent.
func (m *OrderBookManager) RemoveOrder(orderID OrderId) {
	order, ok := m.oids.Get(orderID)
	if !ok {
		return
	}
	m.books[order.BookID].Remove(order)
	m.oids.Remove(orderID)
}

// CancelOrder reduces a resting order's quantity by qty, leaving its OidMap
// entry populated with the residue (§9: this is the canonical behavior,
// distinct from a historical variant that cleared the slot). Precondition:
// qty <= the order's current quantity; violating it is a logic error and
// panics via Quantity.Sub rather than silently underflowing.
func (m *OrderBookManager) CancelOrder(orderID OrderId, qty Quantity) {
	order, ok := m.oids.Get(orderID)
	if !ok {
		return
	}
	m.books[order.BookID].Reduce(order, qty)
	m.oids.ReduceQty(orderID, qty)
}

// ExecuteOrder applies a fill of qty shares. A fill equal to the order's
// remaining quantity is treated as a full removal; anything less is
// treated exactly like a Cancel. The informational execution price (tag C)
// never alters book state — the order's resting price remains authoritative
// (§4.6) — so it has no parameter here.
func (m *OrderBookManager) ExecuteOrder(orderID OrderId, qty Quantity) {
	order, ok := m.oids.Get(orderID)
	if !ok {
		return
	}
	if order.Qty == qty {
		m.RemoveOrder(orderID)
		return
	}
	m.CancelOrder(orderID, qty)
}

// ReplaceOrder removes oldID (recovering its side from the sign of its
// resting level's price, and its book from its Order record) and adds
// newID in its place at the new price/quantity.
//
// If oldID is absent, the conservative choice from §9 is taken: the
// Replace is dropped rather than performing a defaulted Add. The
// alternative (Add with book_id=0, is_bid=true) is the source's observed
// behavior but is flagged there as likely accommodating dropped upstream
// Adds rather than being intentional; this project does not guess intent
// and takes the safer path.
func (m *OrderBookManager) ReplaceOrder(oldID, newID OrderId, newQty Quantity, newPriceRaw uint32) {
	order, ok := m.oids.Get(oldID)
	if !ok {
		return
	}

	level, levelOK := m.pool.Get(order.LevelID)
	if !levelOK {
		panic(fmt.Sprintf("book: replace order %d references unresolved level %d", oldID, order.LevelID))
	}
	isBid := level.Price.IsBid()
	bookID := order.BookID

	m.books[bookID].Remove(order)
	m.oids.Remove(oldID)

	m.AddOrder(newID, bookID, newQty, newPriceRaw, isBid)
}
