package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
)

type StatusHandler struct {
	engine ports.Engine
}

func NewStatusHandler(engine ports.Engine) *StatusHandler {
	return &StatusHandler{engine: engine}
}

// Status returns a consistent snapshot of registry, scores and budget.
func (h *StatusHandler) Status(c *gin.Context) {
	snap, err := h.engine.Snapshot(c.Request.Context())
	if err != nil {
		_ = c.Error(domain.InternalError("Failed to build status snapshot", err))
		return
	}
	c.JSON(http.StatusOK, snap)
}
