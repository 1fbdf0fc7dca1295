package service

import (
	"sync"
	"time"

	"github.com/auditflow/auditflow/internal/metrics"
)

// Watchdog tracks the indexing pipeline's progress watermark: the time of
// the most recent successful worker cycle. It is an explicit, injectable
// object rather than process-global state; the worker is its only writer and
// the health surface its reader.
//
// The watermark is purely a function of worker-reported progress. It is
// deliberately decoupled from index query success so a broken pipeline
// cannot hide behind a healthy read path.
type Watchdog struct {
	mu        sync.RWMutex
	last      time.Time
	threshold time.Duration

	// now is swapped out by tests to simulate the passage of time.
	now func() time.Time
}

// NewWatchdog creates a Watchdog with the given staleness threshold. The
// watermark starts at the current time so a freshly started process reports
// healthy until the threshold first lapses without progress.
func NewWatchdog(threshold time.Duration) *Watchdog {
	w := &Watchdog{threshold: threshold, now: time.Now}
	w.last = w.now()

	return w
}

// MarkProgress records a successful indexing cycle. Last writer wins under
// concurrent workers; only freshness matters, not ordering.
func (w *Watchdog) MarkProgress() {
	now := w.now()

	w.mu.Lock()
	w.last = now
	w.mu.Unlock()
}

// LastProcessedAt returns the current watermark.
func (w *Watchdog) LastProcessedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.last
}

// Status reports whether indexing is live and the watermark backing that
// judgement, so an unhealthy payload can carry the stale timestamp.
func (w *Watchdog) Status() (healthy bool, lastProcessedAt time.Time) {
	w.mu.RLock()
	last := w.last
	w.mu.RUnlock()

	age := w.now().Sub(last)
	metrics.WatermarkAge.Set(age.Seconds())

	return age <= w.threshold, last
}
