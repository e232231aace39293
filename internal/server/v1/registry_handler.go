package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/backends"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/internal/server/validator"
	"github.com/nulzo/model-orchestrator/internal/store"
	"github.com/nulzo/model-orchestrator/internal/store/model"
	"github.com/nulzo/model-orchestrator/pkg/api"
)

const registrationHealthTimeout = 5 * time.Second

type RegistryHandler struct {
	engine    ports.Engine
	validator *validator.Validator
	repo      store.Repository // nil when persistence is disabled
}

func NewRegistryHandler(engine ports.Engine, v *validator.Validator, repo store.Repository) *RegistryHandler {
	return &RegistryHandler{
		engine:    engine,
		validator: v,
		repo:      repo,
	}
}

// RegisterBackend adds a descriptor and its adapter at runtime. The backend
// must pass a health probe before it becomes a routing candidate. When
// persistence is enabled the registration survives restarts.
func (h *RegistryHandler) RegisterBackend(c *gin.Context) {
	var req api.RegisterBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.ValidationError(h.validator.ParseError(err)))
		return
	}

	caps := make([]domain.Capability, 0, len(req.Capabilities))
	for _, raw := range req.Capabilities {
		capability, err := domain.ParseCapability(raw)
		if err != nil {
			_ = c.Error(domain.UnknownCapabilityError(raw))
			return
		}
		caps = append(caps, capability)
	}

	adapter, err := backends.New(config.BackendConfig{
		ID:           req.Identity,
		Provider:     req.Provider,
		Type:         req.Type,
		BaseURL:      req.BaseURL,
		APIKey:       req.APIKey,
		Model:        req.Model,
		Capabilities: req.Capabilities,
	})
	if err != nil {
		_ = c.Error(domain.WrapError(err, http.StatusBadRequest, "failed to construct adapter"))
		return
	}

	healthCtx, cancel := context.WithTimeout(c.Request.Context(), registrationHealthTimeout)
	defer cancel()
	if err := adapter.Health(healthCtx); err != nil {
		_ = c.Error(domain.NewProblem(
			http.StatusBadGateway,
			"Backend Unhealthy",
			"backend failed its health probe",
			domain.WithExtension("identity", req.Identity),
			domain.WithLog(err),
		))
		return
	}

	desc := domain.ModelDescriptor{
		Identity:        req.Identity,
		Provider:        req.Provider,
		Capabilities:    caps,
		MaxPayloadBytes: req.MaxPayloadBytes,
		MaxConcurrency:  req.MaxConcurrency,
	}
	if err := h.engine.Register(desc, adapter); err != nil {
		_ = c.Error(err)
		return
	}

	if h.repo != nil {
		capsJSON, _ := json.Marshal(req.Capabilities)
		row := &model.Backend{
			Identity:        req.Identity,
			Provider:        req.Provider,
			Capabilities:    string(capsJSON),
			AdapterType:     req.Type,
			BaseURL:         req.BaseURL,
			APIKeyEnc:       req.APIKey,
			Model:           req.Model,
			MaxPayloadBytes: req.MaxPayloadBytes,
			MaxConcurrency:  req.MaxConcurrency,
			IsEnabled:       true,
		}
		if err := h.repo.Backends().Upsert(c.Request.Context(), row); err != nil {
			// The backend is live in the registry; roll back so the API
			// result matches durable state.
			h.engine.Deregister(req.Identity)
			_ = c.Error(domain.InternalError("Failed to persist backend registration", err))
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"identity": req.Identity})
}

// DeregisterBackend removes a descriptor. Idempotent: deleting an unknown
// identity still returns 204. Persisted registrations are disabled, not
// deleted, so the row keeps its audit trail.
func (h *RegistryHandler) DeregisterBackend(c *gin.Context) {
	identity := c.Param("id")
	h.engine.Deregister(identity)

	if h.repo != nil {
		if err := h.repo.Backends().Disable(c.Request.Context(), identity); err != nil {
			_ = c.Error(domain.InternalError("Failed to disable persisted backend", err))
			return
		}
	}

	c.Status(http.StatusNoContent)
}

// ListBackends returns every registered descriptor with its current score.
func (h *RegistryHandler) ListBackends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": h.engine.List()})
}

// GetBackend returns a single registered descriptor by identity.
func (h *RegistryHandler) GetBackend(c *gin.Context) {
	identity := c.Param("id")
	for _, v := range h.engine.List() {
		if v.Identity == identity {
			c.JSON(http.StatusOK, gin.H{"backend": v})
			return
		}
	}
	_ = c.Error(domain.NotFoundError("backend not registered: " + identity))
}
