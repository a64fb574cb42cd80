package book

// Preallocation targets. These are hints, not hard caps: the backing slices
// grow past them on demand, but steady-state operation should not require
// growth.
const (
	MaxBooks          = 1 << 14 // stock_locate is 16 bits; books are addressed directly.
	MaxLevels         = 1 << 20
	InitialOrderCount = 1 << 20
)

// OrderId is the feed-assigned order reference, narrowed from the ITCH
// wire's 64-bit reference. The decoder (internal/itch) keeps references at
// 64 bits; narrowing happens where decoded messages are applied
// (cmd/itchreplay's truncateRef), and a reference whose high 32 bits are
// non-zero is reported as a conversion failure there rather than silently
// truncated.
type OrderId uint32

// BookId is the ITCH stock_locate, used to address the manager's flat book
// array directly.
type BookId uint16

// LevelId is a stable handle into the shared level pool. It outlives
// individual orders and is reused once freed.
type LevelId uint32
