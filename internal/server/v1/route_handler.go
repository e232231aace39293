package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/internal/server/validator"
	"github.com/nulzo/model-orchestrator/pkg/api"
)

type RouteHandler struct {
	engine    ports.Engine
	validator *validator.Validator
}

func NewRouteHandler(engine ports.Engine, v *validator.Validator) *RouteHandler {
	return &RouteHandler{
		engine:    engine,
		validator: v,
	}
}

// Route submits one unit of work and returns the terminal routing result.
// A successful dispatch returns the result directly; rejection and
// exhaustion are rendered as problems carrying the full result so callers
// keep the attempt trail.
func (h *RouteHandler) Route(c *gin.Context) {
	var req api.RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.ValidationError(h.validator.ParseError(err)))
		return
	}

	resp, err := h.engine.Route(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	switch domain.Outcome(resp.Outcome) {
	case domain.OutcomeRejected:
		_ = c.Error(domain.ResourceExhaustedError(domain.WithExtension("result", resp)))
	case domain.OutcomeExhausted:
		_ = c.Error(domain.AllCandidatesExhaustedError(resp.Failures, domain.WithExtension("result", resp)))
	default:
		c.JSON(http.StatusOK, resp)
	}
}
