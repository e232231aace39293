package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.BackendConfig {
	return config.BackendConfig{
		ID:           "upstream-1",
		Provider:     "openai",
		Type:         "http",
		BaseURL:      baseURL,
		APIKey:       "sk-test",
		Model:        "gpt-test",
		Capabilities: []string{"chat"},
	}
}

func TestAdapter_InvokeChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "hello", body.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL + "/v1"))
	require.NoError(t, err)

	resp, err := a.Invoke(context.Background(), &api.InvokeRequest{
		Model:      "gpt-test",
		Capability: "chat",
		Payload:    json.RawMessage(`"hello"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", resp.Model)
	assert.JSONEq(t, `"hi there"`, string(resp.Output))
}

func TestAdapter_ContextBecomesSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "be terse", body.Messages[0].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), &api.InvokeRequest{
		Capability: "chat",
		Payload:    json.RawMessage(`"hello"`),
		Context:    json.RawMessage(`"be terse"`),
	})
	require.NoError(t, err)
}

func TestAdapter_InvokeEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"model":"embed-test","data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL))
	require.NoError(t, err)

	resp, err := a.Invoke(context.Background(), &api.InvokeRequest{
		Capability: "embedding",
		Payload:    json.RawMessage(`"embed me"`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[0.1,0.2,0.3]`, string(resp.Output))
	assert.Equal(t, "embed-test", resp.Model)
}

func TestAdapter_ClassifiesUpstreamStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   domain.FailureKind
	}{
		{http.StatusTooManyRequests, domain.FailureRateLimited},
		{http.StatusRequestTimeout, domain.FailureTimeout},
		{http.StatusGatewayTimeout, domain.FailureTimeout},
		{http.StatusInternalServerError, domain.FailureUnavailable},
		{http.StatusServiceUnavailable, domain.FailureUnavailable},
		{http.StatusBadRequest, domain.FailureMalformed},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"upstream said no"}}`))
			}))
			defer srv.Close()

			a, err := NewAdapter(testConfig(srv.URL))
			require.NoError(t, err)

			_, err = a.Invoke(context.Background(), &api.InvokeRequest{
				Capability: "chat",
				Payload:    json.RawMessage(`"hello"`),
			})
			require.Error(t, err)

			var de *domain.DispatchError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.kind, de.Kind)
			assert.Equal(t, "upstream said no", de.Message)
		})
	}
}

func TestAdapter_EmptyChoicesIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), &api.InvokeRequest{
		Capability: "chat",
		Payload:    json.RawMessage(`"hello"`),
	})

	var de *domain.DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.FailureMalformed, de.Kind)
}

func TestAdapter_RequiresBaseURL(t *testing.T) {
	cfg := testConfig("")
	_, err := NewAdapter(cfg)
	assert.Error(t, err)
}

func TestAdapter_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	a, err := NewAdapter(testConfig(srv.URL))
	require.NoError(t, err)
	assert.NoError(t, a.Health(context.Background()))

	srv.Close()
	assert.Error(t, a.Health(context.Background()))
}
