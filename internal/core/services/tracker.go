package services

import (
	"fmt"
	"time"

	"github.com/nulzo/model-orchestrator/internal/core/domain"
)

const defaultAlpha = 0.1

// Tracker maintains the rolling performance record of each descriptor using
// exponential moving averages. Recent history dominates gradually, weighted
// by the decay factor alpha.
type Tracker struct {
	registry *Registry
	alpha    float64
	now      func() time.Time
}

func NewTracker(registry *Registry, alpha float64) *Tracker {
	if alpha <= 0 || alpha > 1 {
		alpha = defaultAlpha
	}
	return &Tracker{
		registry: registry,
		alpha:    alpha,
		now:      time.Now,
	}
}

// Update applies one attempt outcome to the descriptor's record. Updates to
// the same descriptor are serialized under its entry lock; no concurrent
// update is ever lost.
func (t *Tracker) Update(identity string, success bool, latency time.Duration) error {
	e, ok := t.registry.lookup(identity)
	if !ok {
		return fmt.Errorf("tracker: unknown backend %q", identity)
	}

	observed := 0.0
	if success {
		observed = 1.0
	}
	seconds := latency.Seconds()
	if seconds < 0 {
		seconds = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := &e.perf
	if p.Attempts == 0 {
		// Seed with the first observation instead of decaying from zero.
		p.SuccessRate = observed
		p.AvgLatencySeconds = seconds
	} else {
		p.SuccessRate = p.SuccessRate*(1-t.alpha) + observed*t.alpha
		p.AvgLatencySeconds = p.AvgLatencySeconds*(1-t.alpha) + seconds*t.alpha
	}

	if p.SuccessRate < 0 {
		p.SuccessRate = 0
	} else if p.SuccessRate > 1 {
		p.SuccessRate = 1
	}

	p.Attempts++
	if success {
		p.Successes++
	}

	// Timestamps are monotone; a stale clock read never rewinds the record.
	if ts := t.now(); ts.After(p.UpdatedAt) {
		p.UpdatedAt = ts
	}

	return nil
}

// Record returns a copy of the current performance record.
func (t *Tracker) Record(identity string) (domain.PerformanceRecord, bool) {
	e, ok := t.registry.lookup(identity)
	if !ok {
		return domain.PerformanceRecord{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perf, true
}
