package services

import (
	"sync"

	"github.com/nulzo/model-orchestrator/internal/core/domain"
)

// Allocator is the sole admission-control point. It holds a bounded budget of
// cost units and fails fast when the budget is exhausted; retry and backoff
// belong to the caller.
type Allocator struct {
	mu       sync.Mutex
	ceiling  int64
	used     int64
	inflight int64

	// payload bytes per extra cost unit; 0 disables the size factor
	costDivisor int64
}

func NewAllocator(ceiling, costDivisor int64) *Allocator {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Allocator{
		ceiling:     ceiling,
		costDivisor: costDivisor,
	}
}

// EstimateCost derives the admission cost of a request from its capability
// and declared payload size. Media capabilities cost more than short text.
func (a *Allocator) EstimateCost(c domain.Capability, payloadBytes int64) int64 {
	var cost int64 = 1
	switch c {
	case domain.CapabilityVision, domain.CapabilityAudio:
		cost = 2
	}
	if a.costDivisor > 0 && payloadBytes > 0 {
		cost += payloadBytes / a.costDivisor
	}
	return cost
}

// Admit atomically claims cost units from the budget. It never blocks: when
// the budget cannot cover the cost it returns ok=false immediately.
func (a *Allocator) Admit(cost int64) (*Lease, bool) {
	if cost < 1 {
		cost = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.used+cost > a.ceiling {
		return nil, false
	}

	a.used += cost
	a.inflight++

	return &Lease{allocator: a, cost: cost}, true
}

// InFlight returns the number of currently held leases.
func (a *Allocator) InFlight() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inflight
}

// Used returns the claimed budget units.
func (a *Allocator) Used() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Ceiling returns the configured budget ceiling.
func (a *Allocator) Ceiling() int64 {
	return a.ceiling
}

// Lease is one held unit of the allocator's budget. Release must run on every
// exit path; it is safe to call more than once and from a deferred panic path.
type Lease struct {
	allocator *Allocator
	cost      int64
	once      sync.Once
}

func (l *Lease) Release() {
	l.once.Do(func() {
		l.allocator.mu.Lock()
		defer l.allocator.mu.Unlock()
		l.allocator.used -= l.cost
		l.allocator.inflight--
	})
}
