package ports

import (
	"context"

	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/pkg/api"
)

// Engine is the orchestration surface consumed by the HTTP layer.
type Engine interface {
	// Route admits, ranks and dispatches one unit of work, falling back
	// across ranked candidates on retryable failures.
	Route(ctx context.Context, req *api.RouteRequest) (*api.RouteResponse, error)

	// Register adds a descriptor and its adapter. Fails on duplicate identity.
	Register(desc domain.ModelDescriptor, adapter BackendAdapter) error

	// Deregister removes a descriptor. Idempotent.
	Deregister(identity string)

	// List returns all registered descriptors with their current scores.
	List() []api.BackendView

	// Snapshot aggregates registry, tracker and allocator state.
	Snapshot(ctx context.Context) (*api.StatusView, error)
}
