package services

import (
	"context"
	"time"

	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/pkg/api"
)

const (
	statusCacheKey = "orchestrator:status"
	statusCacheTTL = 2 * time.Second
)

// Reporter aggregates registry, tracker and allocator state into a read-only
// snapshot. It never mutates engine state and tolerates concurrent callers.
type Reporter struct {
	registry  *Registry
	selector  *Selector
	allocator *Allocator
	cache     ports.CacheService
}

func NewReporter(registry *Registry, selector *Selector, allocator *Allocator, cache ports.CacheService) *Reporter {
	return &Reporter{
		registry:  registry,
		selector:  selector,
		allocator: allocator,
		cache:     cache,
	}
}

// Snapshot returns a consistent status view, short-cached to keep the
// monitoring endpoint cheap under polling.
func (r *Reporter) Snapshot(ctx context.Context) (*api.StatusView, error) {
	if r.cache != nil {
		var cached api.StatusView
		if err := r.cache.Get(ctx, statusCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	view := &api.StatusView{
		Backends: r.backendViews(),
		InFlight: r.allocator.InFlight(),
		Used:     r.allocator.Used(),
		Ceiling:  r.allocator.Ceiling(),
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, statusCacheKey, view, statusCacheTTL)
	}

	return view, nil
}

func (r *Reporter) backendViews() []api.BackendView {
	candidates := r.registry.List()

	views := make([]api.BackendView, 0, len(candidates))
	for _, c := range candidates {
		caps := make([]string, 0, len(c.Descriptor.Capabilities))
		for _, capability := range c.Descriptor.Capabilities {
			caps = append(caps, capability.String())
		}

		views = append(views, api.BackendView{
			Identity:          c.Descriptor.Identity,
			Provider:          c.Descriptor.Provider,
			Capabilities:      caps,
			Score:             r.selector.Score(c, ""),
			SuccessRate:       c.Record.SuccessRate,
			AvgLatencySeconds: c.Record.AvgLatencySeconds,
			Attempts:          c.Record.Attempts,
		})
	}

	return views
}
