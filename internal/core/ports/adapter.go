package ports

import (
	"context"

	"github.com/nulzo/model-orchestrator/pkg/api"
)

// BackendAdapter is the only contract the engine has with a concrete backend.
// Implementations classify their failures with *domain.DispatchError; any
// other error is treated as a transient fault.
type BackendAdapter interface {
	// Identity returns the descriptor identity this adapter serves.
	Identity() string

	// Invoke performs one dispatch attempt. The context carries the
	// per-attempt deadline and must be honored.
	Invoke(ctx context.Context, req *api.InvokeRequest) (*api.InvokeResponse, error)

	// Health probes the backend before registration.
	Health(ctx context.Context) error
}
