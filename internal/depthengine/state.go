package depthengine

import "sync"

// InstrumentState is the 4-state FSM of §4.D.
type InstrumentState int

const (
	JustStarted InstrumentState = iota
	Recovering
	JustRecovered
	Normal
)

func (s InstrumentState) String() string {
	switch s {
	case JustStarted:
		return "JustStarted"
	case Recovering:
		return "Recovering"
	case JustRecovered:
		return "JustRecovered"
	case Normal:
		return "Normal"
	default:
		return "Unknown"
	}
}

// instrumentStateBox is a reader-writer-locked holder for InstrumentState,
// mutated by the Recovery Controller and by Buffer.drain on the
// JustRecovered -> Normal edge, and read by every drain iteration.
type instrumentStateBox struct {
	mu    sync.RWMutex
	state InstrumentState
}

func newInstrumentStateBox() *instrumentStateBox {
	return &instrumentStateBox{state: JustStarted}
}

func (b *instrumentStateBox) Get() InstrumentState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *instrumentStateBox) Set(s InstrumentState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// GetLocked/SetLocked assume the caller already holds the box's lock, for use
// from within Buffer.drain where State is consulted and mutated as part of a
// larger Buffer-then-Book-then-State critical section.
func (b *instrumentStateBox) Lock()                      { b.mu.Lock() }
func (b *instrumentStateBox) Unlock()                    { b.mu.Unlock() }
func (b *instrumentStateBox) GetLocked() InstrumentState { return b.state }
func (b *instrumentStateBox) SetLocked(s InstrumentState) { b.state = s }
