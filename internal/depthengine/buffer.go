package depthengine

import (
	"container/heap"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// updateHeap is a min-heap of *Update ordered by FirstID ascending, giving
// the Event Buffer O(log n) ingest and O(log n) pop-of-lowest-first-id.
// Ties (the same FirstID arriving on two redundant connections) are broken
// arbitrarily by container/heap; the idempotence invariant on Book makes
// that safe.
type updateHeap []*Update

func (h updateHeap) Len() int            { return len(h) }
func (h updateHeap) Less(i, j int) bool  { return h[i].FirstID < h[j].FirstID }
func (h updateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *updateHeap) Push(x interface{}) { *h = append(*h, x.(*Update)) }
func (h *updateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Buffer holds updates that cannot yet be applied to the Book, ordered by
// FirstID. Ingest and Drain are the only writers; both take the Buffer's own
// lock first and then, while draining, the Book's lock and the Instrument
// State's lock, in that fixed order (§5) to avoid deadlock against any other
// path that might acquire them.
type Buffer struct {
	mu       sync.Mutex
	heap     updateHeap
	book     *Book
	state    *instrumentStateBox
	watchdog *Watchdog
	logger   zerolog.Logger
}

func newBuffer(book *Book, state *instrumentStateBox, watchdog *Watchdog, logger zerolog.Logger) *Buffer {
	b := &Buffer{
		book:     book,
		state:    state,
		watchdog: watchdog,
		logger:   logger.With().Str("component", "buffer").Logger(),
	}
	heap.Init(&b.heap)
	return b
}

// Ingest pushes u onto the buffer and immediately attempts to drain.
func (b *Buffer) Ingest(u *Update) {
	b.mu.Lock()
	heap.Push(&b.heap, u)
	b.mu.Unlock()

	b.Drain()
}

// Drain repeatedly inspects the lowest-FirstID update under the decision
// table of §4.C, applying or discarding it, until the head is not yet
// eligible (a future gap) or the buffer is empty. Calling Drain when nothing
// is eligible is a no-op.
func (b *Buffer) Drain() {
	for {
		applied, more := b.drainOne()
		if !more {
			return
		}
		if applied {
			b.watchdog.Reset()
		}
	}
}

// drainOne performs exactly one decision-table iteration: it holds the
// Buffer lock, then the Book lock, then the State lock for its duration, per
// the fixed lock-ordering discipline. It returns (applied, shouldContinue).
func (b *Buffer) drainOne() (applied bool, shouldContinue bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.book.Lock()
	defer b.book.Unlock()

	b.state.Lock()
	defer b.state.Unlock()

	if len(b.heap) == 0 {
		return false, false
	}

	switch b.state.GetLocked() {
	case Recovering, JustStarted:
		// buffer only; do not touch the Book while recovery owns it.
		return false, false

	case JustRecovered:
		head := b.heap[0]
		cursor := b.book.CursorLocked()
		switch {
		case head.FirstID <= cursor+1 && cursor+1 <= head.LastID:
			heap.Pop(&b.heap)
			if err := b.applyLocked(head); err != nil {
				b.logApplyError(head, err)
				return false, true
			}
			b.state.SetLocked(Normal)
			return true, true
		case head.FirstID > cursor+1:
			return false, false
		default: // head.LastID < cursor+1
			heap.Pop(&b.heap)
			b.logger.Debug().Int64("first_id", head.FirstID).Msg("dropping obsolete buffered update after recovery")
			return false, true
		}

	default: // Normal
		head := b.heap[0]
		cursor := b.book.CursorLocked()
		switch {
		case head.FirstID == cursor+1:
			heap.Pop(&b.heap)
			if err := b.applyLocked(head); err != nil {
				b.logApplyError(head, err)
				return false, true
			}
			return true, true
		case head.FirstID > cursor+1:
			return false, false
		default: // head.FirstID < cursor+1
			heap.Pop(&b.heap)
			return false, true
		}
	}
}

// applyLocked calls Book.applyUpdateLocked assuming the Book's write lock is
// already held by the caller (drainOne).
func (b *Buffer) applyLocked(u *Update) error {
	res, err := b.book.applyUpdateLocked(u)
	if err != nil {
		return err
	}
	_ = res
	return nil
}

func (b *Buffer) logApplyError(u *Update, err error) {
	var gapErr *GapError
	if errors.As(err, &gapErr) {
		// Per §4.C this should only happen if the heap ordering invariant
		// was violated; log and drop without resetting the watchdog so the
		// gap is still caught by the next timeout.
		b.logger.Error().Int64("first_id", u.FirstID).Int64("last_id", u.LastID).
			Int64("cursor", gapErr.Cursor).Msg("gap error during drain, dropping update")
		return
	}
	b.logger.Error().Err(err).Int64("first_id", u.FirstID).Msg("failed to apply buffered update")
}
