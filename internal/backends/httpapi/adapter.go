package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nulzo/model-orchestrator/internal/backends"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/internal/httpclient"
	"github.com/nulzo/model-orchestrator/pkg/api"
)

func init() {
	backends.Register("http", NewAdapter)
}

// Adapter dispatches work to an OpenAI-compatible HTTP backend.
type Adapter struct {
	config config.BackendConfig
	client *http.Client
}

func NewAdapter(cfg config.BackendConfig) (ports.BackendAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend %s: base_url is required for http backends", cfg.ID)
	}
	return &Adapter{
		config: cfg,
		// The per-attempt deadline comes in on the context; this is a hard
		// ceiling for runaway connections.
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (a *Adapter) Identity() string {
	return a.config.ID
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Embedding json.RawMessage `json:"embedding"`
	} `json:"data"`
}

// upstreamErrorResponse mirrors the standard OpenAI error shape
type upstreamErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

func (a *Adapter) Invoke(ctx context.Context, req *api.InvokeRequest) (*api.InvokeResponse, error) {
	switch domain.Capability(req.Capability) {
	case domain.CapabilityEmbedding:
		return a.invokeEmbedding(ctx, req)
	default:
		return a.invokeChat(ctx, req)
	}
}

func (a *Adapter) invokeChat(ctx context.Context, req *api.InvokeRequest) (*api.InvokeResponse, error) {
	messages := make([]chatMessage, 0, 2)
	if len(req.Context) > 0 {
		messages = append(messages, chatMessage{Role: "system", Content: rawAsText(req.Context)})
	}
	messages = append(messages, chatMessage{Role: "user", Content: rawAsText(req.Payload)})

	body := chatCompletionRequest{
		Model:    a.config.Model,
		Messages: messages,
		Stream:   false,
	}

	var resp chatCompletionResponse
	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), body, &resp); err != nil {
		return nil, a.classifyUpstreamError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewDispatchError(domain.FailureMalformed, "upstream returned no choices", nil)
	}

	output, err := json.Marshal(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, domain.NewDispatchError(domain.FailureMalformed, "upstream content not encodable", err)
	}

	return &api.InvokeResponse{Output: output, Model: firstNonEmpty(resp.Model, a.config.Model)}, nil
}

func (a *Adapter) invokeEmbedding(ctx context.Context, req *api.InvokeRequest) (*api.InvokeResponse, error) {
	body := embeddingRequest{
		Model: a.config.Model,
		Input: rawAsText(req.Payload),
	}

	var resp embeddingResponse
	url := fmt.Sprintf("%s/embeddings", strings.TrimRight(a.config.BaseURL, "/"))
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), body, &resp); err != nil {
		return nil, a.classifyUpstreamError(err)
	}

	if len(resp.Data) == 0 {
		return nil, domain.NewDispatchError(domain.FailureMalformed, "upstream returned no embedding data", nil)
	}

	return &api.InvokeResponse{Output: resp.Data[0].Embedding, Model: firstNonEmpty(resp.Model, a.config.Model)}, nil
}

// Health probes the upstream models listing.
func (a *Adapter) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", strings.TrimRight(a.config.BaseURL, "/"))
	return httpclient.SendRequest(ctx, a.client, "GET", url, a.headers(), nil, nil)
}

func (a *Adapter) headers() map[string]string {
	headers := map[string]string{}
	if a.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + a.config.APIKey
	}
	return headers
}

// classifyUpstreamError folds a transport-level error into a classified
// dispatch error so the engine can decide whether to advance the chain.
func (a *Adapter) classifyUpstreamError(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		// Transport failure or context deadline; the engine classifies those.
		return err
	}

	msg := string(upstreamErr.Body)
	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	return domain.NewDispatchError(kindForStatus(upstreamErr.StatusCode), msg, err)
}

func kindForStatus(status int) domain.FailureKind {
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.FailureTimeout
	case status == http.StatusTooManyRequests:
		return domain.FailureRateLimited
	case status >= 500:
		return domain.FailureUnavailable
	default:
		return domain.FailureMalformed
	}
}

// rawAsText unwraps a JSON string, otherwise returns the raw text.
func rawAsText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
