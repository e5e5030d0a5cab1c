package depthengine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RecoveryController implements the single-entry recovery protocol of §4.F:
// transition to Recovering, fetch a snapshot, re-seat the Book, transition to
// JustRecovered, and drain. Snapshot seating and the JustRecovered transition
// happen under the Buffer, Book, and State locks together; the locks are then
// released before the drain, so any update applied after that point, by this
// controller or by an ingestor, goes through the drain's decision table.
type RecoveryController struct {
	httpClient  *http.Client
	snapshotURL string

	book     *Book
	buffer   *Buffer
	state    *instrumentStateBox
	watchdog *Watchdog
	logger   zerolog.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewRecoveryController wires the controller against the shared Book,
// Buffer, State, and Watchdog. httpClient follows the teacher's convention
// of a single shared *http.Client with a request timeout rather than the
// package-level http.Get.
func NewRecoveryController(snapshotURL string, httpClient *http.Client, book *Book, buffer *Buffer, state *instrumentStateBox, watchdog *Watchdog, logger zerolog.Logger) *RecoveryController {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RecoveryController{
		httpClient:  httpClient,
		snapshotURL: snapshotURL,
		book:        book,
		buffer:      buffer,
		state:       state,
		watchdog:    watchdog,
		logger:      logger.With().Str("component", "recovery").Logger(),
	}
}

// Recover runs the protocol once. A concurrent invocation while recovery is
// already in flight is a no-op, per §4.F and the "Open question — concurrent
// recovery" note in §9.
func (rc *RecoveryController) Recover(ctx context.Context) {
	rc.mu.Lock()
	if rc.inFlight {
		rc.mu.Unlock()
		return
	}
	rc.inFlight = true
	rc.mu.Unlock()
	defer func() {
		rc.mu.Lock()
		rc.inFlight = false
		rc.mu.Unlock()
	}()

	rc.state.Set(Recovering)
	rc.logger.Info().Msg("entering recovery")

	snapshot, err := rc.fetchSnapshot(ctx)
	if err != nil {
		rc.logger.Error().Err(err).Msg("snapshot fetch/parse failed, resetting to Normal for watchdog retry")
		rc.state.Set(Normal)
		return
	}

	// Seat the snapshot and enter JustRecovered under the Buffer, Book, and
	// State locks, so no ingestor observes the new cursor in any other state.
	// The locks are released before Drain; an ingestor that drains first
	// applies updates by the same JustRecovered rules.
	rc.buffer.mu.Lock()
	rc.book.Lock()
	rc.state.Lock()
	rc.book.applySnapshotLocked(snapshot)
	rc.state.SetLocked(JustRecovered)
	rc.state.Unlock()
	rc.book.Unlock()
	rc.buffer.mu.Unlock()

	rc.watchdog.Reset()
	rc.logger.Info().Int64("cursor", rc.book.Cursor()).Msg("snapshot applied, state JustRecovered")

	rc.buffer.Drain()
}

func (rc *RecoveryController) fetchSnapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("depthengine: build snapshot request: %w", err)
	}

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("depthengine: snapshot fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("depthengine: read snapshot body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("depthengine: snapshot endpoint returned status %d", resp.StatusCode)
	}

	return ParseSnapshot(body)
}
