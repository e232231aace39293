package server

import (
	"github.com/nulzo/model-orchestrator/internal/server/middleware"
	v1 "github.com/nulzo/model-orchestrator/internal/server/v1"
	"github.com/nulzo/model-orchestrator/internal/server/validator"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler())

	// Health check stays public
	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	val := validator.New()
	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	api.Use(limiter.Middleware())
	{
		routeHandler := v1.NewRouteHandler(s.engine, val)
		api.POST("/route", routeHandler.Route)

		registryHandler := v1.NewRegistryHandler(s.engine, val, s.repo)
		api.POST("/models", registryHandler.RegisterBackend)
		api.DELETE("/models/:id", registryHandler.DeregisterBackend)
		api.GET("/models", registryHandler.ListBackends)
		api.GET("/models/:id", registryHandler.GetBackend)

		statusHandler := v1.NewStatusHandler(s.engine)
		api.GET("/status", statusHandler.Status)

		// Analytics needs the dispatch log, which only exists with storage.
		if s.repo != nil {
			analyticsHandler := v1.NewAnalyticsHandler(s.repo)
			api.GET("/analytics/daily", analyticsHandler.GetDaily)
			api.GET("/analytics/recent", analyticsHandler.GetRecent)
		}
	}
}
