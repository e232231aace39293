package gateway

import (
	"context"
	"testing"

	"github.com/nulzo/model-orchestrator/internal/analytics"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/services"
	"github.com/nulzo/model-orchestrator/internal/store/cache"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestEngine() *services.Engine {
	registry := services.NewRegistry()
	tracker := services.NewTracker(registry, 0.1)
	selector := services.NewSelector(
		services.DefaultSuccessWeight,
		services.DefaultSpeedWeight,
		services.DefaultPreferenceBonus,
	)
	allocator := services.NewAllocator(8, 0)
	return services.NewEngine(
		zap.NewNop(), registry, tracker, selector, allocator,
		cache.NewMemoryCache(), analytics.NopIngestor{}, services.EngineConfig{},
	)
}

func TestBootstrapBackends(t *testing.T) {
	engine := newTestEngine()

	cfgs := []config.BackendConfig{
		{ID: "local-a", Provider: "static", Type: "static", Capabilities: []string{"chat"}, Enabled: true},
		{ID: "local-b", Provider: "static", Type: "static", Capabilities: []string{"chat", "code"}, Enabled: true},
		{ID: "disabled", Provider: "static", Type: "static", Capabilities: []string{"chat"}, Enabled: false},
		{ID: "bad-caps", Provider: "static", Type: "static", Capabilities: []string{"telepathy"}, Enabled: true},
		{ID: "", Provider: "static", Type: "static", Capabilities: []string{"chat"}, Enabled: true},
	}

	count := BootstrapBackends(context.Background(), engine, cfgs, zap.NewNop())
	assert.Equal(t, 2, count)

	views := engine.List()
	assert.Len(t, views, 2)
	assert.Equal(t, "local-a", views[0].Identity)
	assert.Equal(t, "local-b", views[1].Identity)
}

func TestBootstrapBackends_DuplicateIdentity(t *testing.T) {
	engine := newTestEngine()

	cfgs := []config.BackendConfig{
		{ID: "dup", Provider: "static", Type: "static", Capabilities: []string{"chat"}, Enabled: true},
		{ID: "dup", Provider: "static", Type: "static", Capabilities: []string{"chat"}, Enabled: true},
	}

	count := BootstrapBackends(context.Background(), engine, cfgs, zap.NewNop())
	assert.Equal(t, 1, count)
}
