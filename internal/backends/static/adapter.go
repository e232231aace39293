package static

import (
	"context"
	"encoding/json"

	"github.com/nulzo/model-orchestrator/internal/backends"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/pkg/api"
)

func init() {
	backends.Register("static", NewAdapter)
}

// Adapter serves canned responses without leaving the process. It exists for
// local development and load testing against the routing path itself.
type Adapter struct {
	config config.BackendConfig
}

func NewAdapter(cfg config.BackendConfig) (ports.BackendAdapter, error) {
	return &Adapter{config: cfg}, nil
}

func (a *Adapter) Identity() string {
	return a.config.ID
}

type staticOutput struct {
	Model      string          `json:"model"`
	Capability string          `json:"capability"`
	Echo       json.RawMessage `json:"echo"`
}

func (a *Adapter) Invoke(ctx context.Context, req *api.InvokeRequest) (*api.InvokeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	model := a.config.Model
	if model == "" {
		model = a.config.ID
	}

	output, err := json.Marshal(staticOutput{
		Model:      model,
		Capability: req.Capability,
		Echo:       req.Payload,
	})
	if err != nil {
		return nil, domain.NewDispatchError(domain.FailureMalformed, "payload not encodable", err)
	}

	return &api.InvokeResponse{Output: output, Model: model}, nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return nil
}
