package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/logger"
	"github.com/nulzo/model-orchestrator/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders errors collected by handlers. Problems are serialized
// at the root per RFC 9457; anything unrecognized becomes a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var problem *domain.Problem
		if errors.As(err, &problem) {
			if problem.Log != nil {
				logger.Error("Request failed", zap.Error(problem.Log))
			}
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		var appErr *domain.Error
		if errors.As(err, &appErr) {
			if appErr.Log != nil {
				logger.Error("Request failed", zap.Error(appErr.Log))
			}
			c.JSON(appErr.Code, api.ErrorResponse{Message: appErr.Message})
			c.Abort()
			return
		}

		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, domain.NewProblem(
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected error occurred.",
		))
		c.Abort()
	}
}
