package static

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_EchoesPayload(t *testing.T) {
	a, err := NewAdapter(config.BackendConfig{ID: "local", Model: "canned-1"})
	require.NoError(t, err)

	resp, err := a.Invoke(context.Background(), &api.InvokeRequest{
		Capability: "chat",
		Payload:    json.RawMessage(`{"q":"ping"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "canned-1", resp.Model)
	assert.JSONEq(t, `{"model":"canned-1","capability":"chat","echo":{"q":"ping"}}`, string(resp.Output))
}

func TestAdapter_HonorsCancelledContext(t *testing.T) {
	a, err := NewAdapter(config.BackendConfig{ID: "local"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Invoke(ctx, &api.InvokeRequest{Capability: "chat", Payload: json.RawMessage(`"x"`)})
	assert.ErrorIs(t, err, context.Canceled)
}
