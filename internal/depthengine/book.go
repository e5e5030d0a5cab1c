package depthengine

import (
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ApplyResult reports what happened when an Update was offered to the Book.
type ApplyResult int

const (
	// Ok means the update was applied and the cursor advanced to its LastID.
	Ok ApplyResult = iota
	// StaleAccepted means the update's range is entirely behind the cursor.
	StaleAccepted
)

func decimalComparator(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

// PriceLevel is a single (price, quantity) pair on one side of the book.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// side wraps a treemap of price -> qty. asc controls iteration direction when
// reading the top of book: false for bids (best = max), true for asks (best = min).
type side struct {
	levels treemap.Map
	asc    bool
}

func newSide(asc bool) *side {
	return &side{levels: *treemap.NewWith(decimalComparator), asc: asc}
}

func (s *side) apply(levels []PriceLevel) {
	for _, lv := range levels {
		if lv.Qty.IsZero() {
			s.levels.Remove(lv.Price)
			continue
		}
		s.levels.Put(lv.Price, lv.Qty)
	}
}

func (s *side) replace(levels []PriceLevel) {
	s.levels.Clear()
	for _, lv := range levels {
		if lv.Qty.IsZero() || lv.Qty.IsNegative() {
			continue
		}
		s.levels.Put(lv.Price, lv.Qty)
	}
}

func (s *side) top(depth int) []PriceLevel {
	out := make([]PriceLevel, 0, depth)
	it := s.levels.Iterator()
	if s.asc {
		for it.Next() {
			out = append(out, PriceLevel{Price: it.Key().(decimal.Decimal), Qty: it.Value().(decimal.Decimal)})
			if len(out) >= depth {
				break
			}
		}
	} else {
		for it.End(); it.Prev(); {
			out = append(out, PriceLevel{Price: it.Key().(decimal.Decimal), Qty: it.Value().(decimal.Decimal)})
			if len(out) >= depth {
				break
			}
		}
	}
	return out
}

// GapError is returned by Book.ApplyUpdateLocking when the update's first sequence
// leaves a hole after the cursor. The book is left unmodified.
type GapError struct {
	Cursor  int64
	FirstID int64
}

func (e *GapError) Error() string {
	return "depthengine: sequence gap detected"
}

// Gap is the number of missing updates implied by the error.
func (e *GapError) Gap() int64 {
	return e.FirstID - e.Cursor - 1
}

// Book is the in-memory L2 order book for one symbol: two price-ordered
// sides plus the cursor of the highest sequence number applied so far.
// It is safe for concurrent use; callers needing to combine a read/write with
// another resource's lock should use Lock/Unlock directly (see Buffer.drain).
type Book struct {
	mu     sync.RWMutex
	symbol string
	bids   *side
	asks   *side
	cursor int64
	logger zerolog.Logger
}

// NewBook allocates an empty book for symbol. The cursor starts at zero, so
// the first snapshot always seats it; an update seats it only if its FirstID
// is at most 1, any other update is reported as a gap.
func NewBook(symbol string, logger zerolog.Logger) *Book {
	return &Book{
		symbol: symbol,
		bids:   newSide(false),
		asks:   newSide(true),
		logger: logger.With().Str("component", "book").Str("symbol", symbol).Logger(),
	}
}

// Lock/Unlock expose the book's write lock so the Event Buffer can hold both
// its own lock and the book's across a single drain iteration, in the fixed
// Buffer-then-Book order required by §5.
func (b *Book) Lock()   { b.mu.Lock() }
func (b *Book) Unlock() { b.mu.Unlock() }

// Cursor returns last_applied_id. It takes the book's read lock itself, so it
// must not be called while the caller already holds the book's lock; use
// CursorLocked there instead.
func (b *Book) Cursor() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

// CursorLocked is Cursor without acquiring the lock; callers must already
// hold it (e.g. from within Buffer.drain, which locks Book for the duration
// of one decision+apply).
func (b *Book) CursorLocked() int64 {
	return b.cursor
}

// ApplySnapshot clears both sides and reseats the cursor at the snapshot's
// sequence point. It is the only way the cursor can move backward relative
// to itself logically, since a snapshot authoritatively redefines state.
func (b *Book) ApplySnapshot(s *Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applySnapshotLocked(s)
}

func (b *Book) applySnapshotLocked(s *Snapshot) {
	b.bids.replace(s.Bids)
	b.asks.replace(s.Asks)
	b.cursor = s.LastUpdateID
	b.logger.Debug().Int64("cursor", b.cursor).Msg("snapshot applied")
}

// ApplyUpdateLocking implements §4.A's three-branch decision table for
// standalone use: it acquires the book's write lock itself. The Buffer's
// drain loop, which already holds that lock, calls applyUpdateLocked instead.
func (b *Book) ApplyUpdateLocking(u *Update) (ApplyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.applyUpdateLocked(u)
}

func (b *Book) applyUpdateLocked(u *Update) (ApplyResult, error) {
	if u.LastID <= b.cursor {
		return StaleAccepted, nil
	}
	if u.FirstID > b.cursor+1 {
		return Ok, &GapError{Cursor: b.cursor, FirstID: u.FirstID}
	}

	b.bids.apply(u.Bids)
	b.asks.apply(u.Asks)
	b.cursor = u.LastID

	b.logger.Debug().Int64("first_id", u.FirstID).Int64("last_id", u.LastID).Msg("update applied")
	return Ok, nil
}

// Top returns up to depth price levels per side, bids best-first (descending
// price) and asks best-first (ascending price).
func (b *Book) Top(depth int) (bids, asks []PriceLevel) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.top(depth), b.asks.top(depth)
}

// Summary is the Go counterpart of the teacher's Summary()/print() trace
// helper: it returns the top-5 levels of each side. Nothing in this module
// calls it; it is part of the read surface alongside Top.
func (b *Book) Summary() (bids, asks []PriceLevel) {
	return b.Top(5)
}
