package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sizeAt returns the aggregate size at the given price on book id, failing
// the test if the level doesn't exist.
func sizeAt(t *testing.T, m *OrderBookManager, bookID BookId, price Price) Quantity {
	t.Helper()
	b := m.Book(bookID)
	require.NotNil(t, b, "book %d was never created", bookID)

	levels := b.Bids
	if !price.IsBid() {
		levels = b.Asks
	}
	for i := 0; i < levels.Len(); i++ {
		px := levels.At(i)
		if px.Price == price {
			lvl, ok := m.pool.Get(px.LevelID)
			require.True(t, ok)
			return lvl.Size
		}
	}
	t.Fatalf("no level at price %v on book %d", price, bookID)
	return 0
}

func TestScenario_S1_S4_SameBookMultipleLevels(t *testing.T) {
	m := NewManager()

	// S1
	m.AddOrder(0, 1, 800, 500, true)
	m.AddOrder(1, 1, 50, 600, true)
	m.AddOrder(2, 1, 26, 600, true)

	assert.Equal(t, Quantity(800), sizeAt(t, m, 1, NewPrice(500, true)))
	assert.Equal(t, Quantity(76), sizeAt(t, m, 1, NewPrice(600, true)))
	assert.Equal(t, 2, m.Book(1).Bids.Len())

	// S2
	m.RemoveOrder(2)
	assert.Equal(t, Quantity(50), sizeAt(t, m, 1, NewPrice(600, true)))

	// S3
	m.CancelOrder(0, 100)
	assert.Equal(t, Quantity(700), sizeAt(t, m, 1, NewPrice(500, true)))
	order, ok := m.oids.Get(0)
	require.True(t, ok)
	assert.Equal(t, Quantity(700), order.Qty)

	// S4
	m.RemoveOrder(1)
	assert.Equal(t, 1, m.Book(1).Bids.Len())
}

func TestScenario_S5_SameBookAndLevel(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 800, 500, true)
	m.AddOrder(1, 1, 50, 500, true)
	m.AddOrder(2, 1, 26, 500, true)

	assert.Equal(t, Quantity(876), sizeAt(t, m, 1, NewPrice(500, true)))
	assert.Equal(t, 1, m.Book(1).Bids.Len())
}

func TestScenario_S6_Replace(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 800, 500, true)
	m.AddOrder(1, 1, 50, 500, true)
	m.AddOrder(2, 1, 26, 500, true)
	assert.Equal(t, Quantity(876), sizeAt(t, m, 1, NewPrice(500, true)))

	m.ReplaceOrder(2, 3, 50, 400)

	assert.Equal(t, Quantity(850), sizeAt(t, m, 1, NewPrice(500, true)))
	assert.Equal(t, Quantity(50), sizeAt(t, m, 1, NewPrice(400, true)))
	assert.Equal(t, 2, m.Book(1).Bids.Len())
}

func TestBoundary_B1_B2_InsertAtTailAndHead(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 10, 100, true)
	m.AddOrder(1, 1, 10, 200, true) // strictly greater: should land at the tail
	assert.Equal(t, Price(200), m.Book(1).Bids.At(m.Book(1).Bids.Len()-1).Price)

	m.AddOrder(2, 1, 10, 50, true) // strictly less: should land at the head
	assert.Equal(t, Price(50), m.Book(1).Bids.At(0).Price)
}

func TestBoundary_B3_ExistingPriceNoNewLevel(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 10, 100, true)
	before := m.Book(1).Bids.At(0).LevelID

	m.AddOrder(1, 1, 10, 100, true)
	after := m.Book(1).Bids.At(0).LevelID

	assert.Equal(t, before, after)
	assert.Equal(t, 1, m.Book(1).Bids.Len())
}

func TestBoundary_B4_ExecuteFullAndPartial(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 100, 500, true)
	m.ExecuteOrder(0, 40) // partial: residue left
	_, ok := m.oids.Get(0)
	require.True(t, ok)
	assert.Equal(t, Quantity(60), sizeAt(t, m, 1, NewPrice(500, true)))

	m.ExecuteOrder(0, 60) // full: removed
	_, ok = m.oids.Get(0)
	assert.False(t, ok)
}

func TestLaw_L1_AddRemoveRoundTrips(t *testing.T) {
	m := NewManager()

	m.AddOrder(5, 1, 10, 500, true)
	m.AddOrder(0, 1, 100, 500, true)
	m.RemoveOrder(0)

	// The book is back to exactly the state it was in before order 0 was
	// added: one level at 500 with size 10.
	assert.Equal(t, 1, m.Book(1).Bids.Len())
	assert.Equal(t, Quantity(10), sizeAt(t, m, 1, NewPrice(500, true)))
}

func TestLaw_L2_CancelFullQtyMatchesRemoveAggregate(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 100, 500, true)
	m.CancelOrder(0, 100)

	assert.Equal(t, Quantity(0), sizeAt(t, m, 1, NewPrice(500, true)))
	// Unlike RemoveOrder, a full-qty Cancel does not clear the OidMap slot.
	order, ok := m.oids.Get(0)
	require.True(t, ok)
	assert.Equal(t, Quantity(0), order.Qty)
}

func TestLaw_L3_ExecuteFullRemovesFromOidMap(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 100, 500, true)
	m.ExecuteOrder(0, 100)

	_, ok := m.oids.Get(0)
	assert.False(t, ok)
	// The level drained to zero by a full fill is removed from its side.
	assert.Equal(t, 0, m.Book(1).Bids.Len())
}

func TestLaw_L5_PartialCancelLeavesResidueInOidMap(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 100, 500, true)
	m.CancelOrder(0, 35)

	order, ok := m.oids.Get(0)
	require.True(t, ok)
	assert.Equal(t, Quantity(65), order.Qty)
}

func TestAsksUseNegatedPrice(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 10, 500, false) // sell/ask

	require.Equal(t, 1, m.Book(1).Asks.Len())
	assert.Equal(t, Price(-500), m.Book(1).Asks.At(0).Price)
	assert.False(t, m.Book(1).Asks.At(0).Price.IsBid())
}

func TestReplaceOfAbsentOldIdIsDropped(t *testing.T) {
	m := NewManager()

	// No order 99 was ever added; replacing it must be a no-op, not a
	// defaulted Add (§9 open question, resolved conservatively).
	m.ReplaceOrder(99, 100, 10, 500)

	for id := range m.books {
		assert.Nil(t, m.books[id], "replace of an absent order must not create a book")
	}
	_, ok := m.oids.Get(100)
	assert.False(t, ok)
}

func TestCancelOrExecuteOfAbsentOrderIsNoOp(t *testing.T) {
	m := NewManager()
	assert.NotPanics(t, func() {
		m.CancelOrder(42, 10)
		m.ExecuteOrder(42, 10)
		m.RemoveOrder(42)
	})
}

func TestLevelFreedAndReusedOnEmptyThenRepopulated(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 1, 10, 500, true)
	firstLevelID := m.Book(1).Bids.At(0).LevelID

	m.RemoveOrder(0)
	assert.Equal(t, 0, m.Book(1).Bids.Len())

	m.AddOrder(1, 1, 20, 700, true)
	reusedLevelID := m.Book(1).Bids.At(0).LevelID
	assert.Equal(t, firstLevelID, reusedLevelID, "freed level ids should be recycled")
}

func TestActiveBooksAscendingAndUnique(t *testing.T) {
	m := NewManager()

	m.AddOrder(0, 5, 10, 500, true)
	m.AddOrder(1, 2, 10, 500, true)
	m.AddOrder(2, 5, 10, 600, true) // book 5 again: must not duplicate

	assert.Equal(t, []BookId{2, 5}, m.ActiveBooks())
}

func TestCancelPastRemainingQtyPanics(t *testing.T) {
	m := NewManager()
	m.AddOrder(0, 1, 10, 500, true)

	assert.Panics(t, func() {
		m.CancelOrder(0, 11)
	})
}
