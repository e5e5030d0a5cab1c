package depthengine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Watchdog tracks the time of the last successful Book apply and fires
// Recovery whenever timeoutDuration elapses without one (§4.E). It does not
// distinguish "no data arriving" from "data arriving but never draining":
// either is a loss of liveness.
type Watchdog struct {
	mu       sync.RWMutex
	last     time.Time
	timeout  time.Duration
	onFire   func()
	logger   zerolog.Logger
}

// NewWatchdog constructs a Watchdog with the given inactivity threshold
// (default 5s per §3's Timeout State).
func NewWatchdog(timeout time.Duration, onFire func(), logger zerolog.Logger) *Watchdog {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Watchdog{
		last:    time.Now(),
		timeout: timeout,
		onFire:  onFire,
		logger:  logger.With().Str("component", "watchdog").Logger(),
	}
}

// Reset marks the current time as the last activity.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = time.Now()
}

// IsTimedOut reports whether timeoutDuration has elapsed since the last reset.
func (w *Watchdog) IsTimedOut() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return time.Since(w.last) >= w.timeout
}

// Run sleeps for the timeout duration in a loop, checking for inactivity and
// invoking onFire (the Recovery Controller) whenever the threshold is
// crossed. It returns when ctx is cancelled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.timeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.IsTimedOut() {
				w.logger.Warn().Msg("inactivity timeout reached, triggering recovery")
				w.onFire()
			}
		}
	}
}
