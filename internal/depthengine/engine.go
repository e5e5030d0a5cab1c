package depthengine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config carries the parameters Engine needs: which symbol to track, how
// many redundant depth connections to open, the REST snapshot endpoint, the
// depth-stream base URL, and the watchdog's inactivity threshold.
type Config struct {
	Symbol          string
	DepthStreamURL  string
	SnapshotURL     string
	Connections     int
	WatchdogTimeout time.Duration
}

// Engine wires components A-G together per §2's data flow: N ingestors feed
// the Buffer, which drains into the Book under the Instrument State's
// gating; the Watchdog races concurrently and invokes the Recovery
// Controller on inactivity, as does Engine itself once at startup.
type Engine struct {
	cfg      Config
	book     *Book
	buffer   *Buffer
	state    *instrumentStateBox
	watchdog *Watchdog
	recovery *RecoveryController
	logger   zerolog.Logger
}

// NewEngine constructs every component but starts nothing; call Run to start
// the ingestors, the watchdog, and the initial recovery.
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	if cfg.Connections <= 0 {
		cfg.Connections = 3
	}
	if cfg.WatchdogTimeout <= 0 {
		cfg.WatchdogTimeout = 5 * time.Second
	}

	book := NewBook(cfg.Symbol, logger)
	state := newInstrumentStateBox()

	e := &Engine{
		cfg:    cfg,
		book:   book,
		state:  state,
		logger: logger.With().Str("component", "engine").Str("symbol", cfg.Symbol).Logger(),
	}

	e.watchdog = NewWatchdog(cfg.WatchdogTimeout, e.triggerRecovery, logger)
	e.buffer = newBuffer(book, state, e.watchdog, logger)
	e.recovery = NewRecoveryController(cfg.SnapshotURL, nil, book, e.buffer, state, e.watchdog, logger)

	return e
}

func (e *Engine) triggerRecovery() {
	// The watchdog fires on its own goroutine with no request context of its
	// own; recovery has no deadline per §5, so a background context is
	// correct here.
	e.recovery.Recover(context.Background())
}

// Run starts the watchdog, performs the initial (JustStarted) recovery, and
// launches the N depth ingestors. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.watchdog.Run(ctx)
	}()

	// Initial recovery because the instrument is born JustStarted.
	e.recovery.Recover(ctx)

	// Each ingestor runs until it errors or ctx is cancelled; per §5 a
	// connection that errors is not restarted, so Run is called exactly
	// once per connection. The other connections and recovery continue
	// unaffected.
	for i := 0; i < e.cfg.Connections; i++ {
		wg.Add(1)
		url := streamURL(e.cfg.DepthStreamURL, e.cfg.Symbol)
		ig := NewIngestor(url, e.buffer, e.logger)
		go func() {
			defer wg.Done()
			ig.Run(ctx)
		}()
	}

	wg.Wait()
}

// Book exposes the underlying Book for external, read-only observers (§5's
// "Readers (if added for external observers) see a consistent snapshot").
func (e *Engine) Book() *Book {
	return e.book
}

// State returns the current instrument state, for diagnostics/tests.
func (e *Engine) State() InstrumentState {
	return e.state.Get()
}
