package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/model-orchestrator/internal/analytics"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/services"
	"github.com/nulzo/model-orchestrator/internal/gateway"
	"github.com/nulzo/model-orchestrator/internal/server"
	"github.com/nulzo/model-orchestrator/internal/store"
	"github.com/nulzo/model-orchestrator/internal/store/cache"
	"github.com/nulzo/model-orchestrator/internal/store/model"
	"github.com/nulzo/model-orchestrator/internal/store/sqlite"
	"github.com/nulzo/model-orchestrator/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "sk-test-key"

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	return startServerWith(t, nil)
}

func startServerWith(t *testing.T, repo store.Repository) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.Server.APIKeys = []string{testAPIKey}
	cfg.RateLimit.RequestsPerSecond = 10000
	cfg.RateLimit.Burst = 10000

	registry := services.NewRegistry()
	tracker := services.NewTracker(registry, 0.1)
	selector := services.NewSelector(
		services.DefaultSuccessWeight,
		services.DefaultSpeedWeight,
		services.DefaultPreferenceBonus,
	)
	allocator := services.NewAllocator(64, 0)
	engine := services.NewEngine(
		zap.NewNop(), registry, tracker, selector, allocator,
		cache.NewMemoryCache(), analytics.NopIngestor{}, services.EngineConfig{},
	)

	backends := []config.BackendConfig{
		{ID: "echo-a", Provider: "static", Type: "static", Model: "echo-model", Capabilities: []string{"chat", "code"}, Enabled: true},
		{ID: "echo-b", Provider: "static", Type: "static", Capabilities: []string{"chat"}, Enabled: true},
	}
	require.Equal(t, 2, gateway.BootstrapBackends(t.Context(), engine, backends, zap.NewNop()))

	srv := httptest.NewServer(server.New(cfg, zap.NewNop(), engine, repo).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()
	repo, err := sqlite.NewSQLiteStorage("file:" + filepath.Join(t.TempDir(), "orchestrator.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func doRequest(t *testing.T, srv *httptest.Server, method, path string, payload interface{}, target interface{}) int {
	t.Helper()

	var body io.Reader
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestHealthIsPublic(t *testing.T) {
	srv := startServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteRequiresAuth(t *testing.T) {
	srv := startServer(t)

	resp, err := http.Post(srv.URL+"/v1/route", "application/json",
		bytes.NewBufferString(`{"capability":"chat","payload":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouteSuccess(t *testing.T) {
	srv := startServer(t)

	var result api.RouteResponse
	code := doRequest(t, srv, "POST", "/v1/route",
		api.RouteRequest{Capability: "chat", Payload: json.RawMessage(`"hello"`)}, &result)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", result.Outcome)
	assert.Equal(t, "echo-a", result.Model)
	assert.Equal(t, 1, result.Attempts)
	assert.NotEmpty(t, result.ID)
	assert.NotEmpty(t, result.Output)
}

func TestRoutePinnedToPreferred(t *testing.T) {
	srv := startServer(t)

	var result api.RouteResponse
	code := doRequest(t, srv, "POST", "/v1/route",
		api.RouteRequest{
			Capability:     "chat",
			Payload:        json.RawMessage(`"hello"`),
			PreferredModel: "echo-b",
			NoFallback:     true,
		}, &result)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "echo-b", result.Model)
}

func TestRouteUnknownCapability(t *testing.T) {
	srv := startServer(t)

	var problem map[string]interface{}
	code := doRequest(t, srv, "POST", "/v1/route",
		api.RouteRequest{Capability: "telepathy", Payload: json.RawMessage(`"hi"`)}, &problem)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation Error", problem["title"])
}

func TestRouteNoCandidate(t *testing.T) {
	srv := startServer(t)

	var problem map[string]interface{}
	code := doRequest(t, srv, "POST", "/v1/route",
		api.RouteRequest{Capability: "audio", Payload: json.RawMessage(`"hi"`)}, &problem)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No Candidate", problem["title"])
}

func TestRegistryLifecycle(t *testing.T) {
	srv := startServer(t)

	// Register a third static backend at runtime
	code := doRequest(t, srv, "POST", "/v1/models", api.RegisterBackendRequest{
		Identity:     "echo-c",
		Provider:     "static",
		Type:         "static",
		Capabilities: []string{"vision"},
	}, nil)
	assert.Equal(t, http.StatusCreated, code)

	// Duplicate identity conflicts
	var problem map[string]interface{}
	code = doRequest(t, srv, "POST", "/v1/models", api.RegisterBackendRequest{
		Identity:     "echo-c",
		Provider:     "static",
		Type:         "static",
		Capabilities: []string{"vision"},
	}, &problem)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Duplicate Identity", problem["title"])

	var listing struct {
		Backends []api.BackendView `json:"backends"`
	}
	code = doRequest(t, srv, "GET", "/v1/models", nil, &listing)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, listing.Backends, 3)

	// Deregistration is idempotent
	code = doRequest(t, srv, "DELETE", "/v1/models/echo-c", nil, nil)
	assert.Equal(t, http.StatusNoContent, code)
	code = doRequest(t, srv, "DELETE", "/v1/models/echo-c", nil, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code = doRequest(t, srv, "GET", "/v1/models", nil, &listing)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, listing.Backends, 2)
}

func TestStatusSnapshot(t *testing.T) {
	srv := startServer(t)

	var result api.RouteResponse
	doRequest(t, srv, "POST", "/v1/route",
		api.RouteRequest{Capability: "chat", Payload: json.RawMessage(`"hello"`)}, &result)
	require.Equal(t, "success", result.Outcome)

	var status api.StatusView
	code := doRequest(t, srv, "GET", "/v1/status", nil, &status)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(64), status.Ceiling)
	assert.Equal(t, int64(0), status.InFlight)
	assert.Len(t, status.Backends, 2)

	for _, b := range status.Backends {
		if b.Identity == result.Model {
			assert.Equal(t, uint64(1), b.Attempts)
			assert.Equal(t, 1.0, b.SuccessRate)
		}
	}
}

func TestAuthRejectsInvalidKey(t *testing.T) {
	srv := startServer(t)

	req, err := http.NewRequest("GET", srv.URL+"/v1/models", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong-key")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid API Key", body.Message)
}

func TestGetBackendByIdentity(t *testing.T) {
	srv := startServer(t)

	var found struct {
		Backend api.BackendView `json:"backend"`
	}
	code := doRequest(t, srv, "GET", "/v1/models/echo-a", nil, &found)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "echo-a", found.Backend.Identity)

	code = doRequest(t, srv, "GET", "/v1/models/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRegistryPersistsAcrossStore(t *testing.T) {
	repo := newTestRepo(t)
	srv := startServerWith(t, repo)

	code := doRequest(t, srv, "POST", "/v1/models", api.RegisterBackendRequest{
		Identity:     "echo-c",
		Provider:     "static",
		Type:         "static",
		Capabilities: []string{"vision"},
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	rows, err := repo.Backends().ListEnabled(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "echo-c", rows[0].Identity)
	assert.Equal(t, `["vision"]`, rows[0].Capabilities)

	// Deregistration disables the persisted row rather than deleting it
	code = doRequest(t, srv, "DELETE", "/v1/models/echo-c", nil, nil)
	require.Equal(t, http.StatusNoContent, code)

	rows, err = repo.Backends().ListEnabled(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAnalyticsEndpoints(t *testing.T) {
	repo := newTestRepo(t)
	srv := startServerWith(t, repo)

	ctx := context.Background()
	for _, outcome := range []string{"success", "success", "rejected"} {
		require.NoError(t, repo.Dispatches().Log(ctx, &model.DispatchLog{
			ID:           uuid.New().String(),
			Capability:   "chat",
			ModelID:      "echo-a",
			Outcome:      outcome,
			Attempts:     1,
			FailureKinds: "[]",
			LatencyMS:    10,
			CreatedAt:    time.Now(),
		}))
	}

	var recent struct {
		Object string              `json:"object"`
		Data   []model.DispatchLog `json:"data"`
	}
	code := doRequest(t, srv, "GET", "/v1/analytics/recent?limit=2", nil, &recent)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "list", recent.Object)
	assert.Len(t, recent.Data, 2)

	var daily struct {
		Data []model.DailyStats `json:"data"`
	}
	code = doRequest(t, srv, "GET", "/v1/analytics/daily", nil, &daily)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, daily.Data, 1)
	assert.Equal(t, 3, daily.Data[0].TotalRequests)
	assert.Equal(t, 2, daily.Data[0].TotalSuccesses)

	code = doRequest(t, srv, "GET", "/v1/analytics/daily?days=zero", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAnalyticsDisabledWithoutStore(t *testing.T) {
	srv := startServer(t)

	code := doRequest(t, srv, "GET", "/v1/analytics/recent", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestValidationErrorShape(t *testing.T) {
	srv := startServer(t)

	var problem map[string]interface{}
	code := doRequest(t, srv, "POST", "/v1/route", map[string]string{}, &problem)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation Error", problem["title"])
	assert.Contains(t, problem, "errors")
}
