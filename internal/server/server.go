package server

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/internal/server/middleware"
	"github.com/nulzo/model-orchestrator/internal/store"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger
	engine ports.Engine
	repo   store.Repository // nil when persistence is disabled
}

func New(cfg *config.Config, logger *zap.Logger, engine ports.Engine, repo store.Repository) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(middleware.Logger(logger))
	router.Use(otelgin.Middleware("model-orchestrator"))

	s := &Server{
		router: router,
		config: cfg,
		logger: logger,
		engine: engine,
		repo:   repo,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
