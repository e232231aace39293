package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/model-orchestrator/cmd"
	"github.com/nulzo/model-orchestrator/internal/analytics"
	"github.com/nulzo/model-orchestrator/internal/cli"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/internal/core/services"
	"github.com/nulzo/model-orchestrator/internal/gateway"
	"github.com/nulzo/model-orchestrator/internal/logger"
	"github.com/nulzo/model-orchestrator/internal/platform/otel"
	"github.com/nulzo/model-orchestrator/internal/server"
	"github.com/nulzo/model-orchestrator/internal/store"
	"github.com/nulzo/model-orchestrator/internal/store/cache"
	"github.com/nulzo/model-orchestrator/internal/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	printBanner()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Initialize(cfg.Server.Env)
	defer logger.Sync()
	log := logger.Get()

	go cmd.CheckForUpdates()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.InitTracer("model-orchestrator", log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	// Persistence and analytics are optional; routing works without them.
	var ingestor analytics.Ingestor = analytics.NopIngestor{}
	var repo store.Repository
	if cfg.Store.Enabled {
		repo, err = sqlite.NewSQLiteStorage(cfg.Store.DSN)
		if err != nil {
			log.Fatal("Failed to open storage", zap.Error(err))
		}
		defer func() {
			_ = repo.Close()
		}()

		ingestor = analytics.NewIngestor(log, repo)
		ingestor.Start(ctx)
		defer ingestor.Stop()
	}

	var cacheService ports.CacheService
	if cfg.Redis.Enabled {
		cacheService, err = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unreachable, falling back to in-memory cache", zap.Error(err))
			cacheService = cache.NewMemoryCache()
		}
	} else {
		cacheService = cache.NewMemoryCache()
	}

	engine := buildEngine(cfg, log, cacheService, ingestor)

	registered := gateway.BootstrapBackends(ctx, engine, cfg.Backends, log)
	if repo != nil {
		registered += gateway.BootstrapPersisted(ctx, engine, repo, log)
	}
	log.Info("Bootstrap complete", zap.Int("backends", registered))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(cfg, log, engine, repo).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting orchestrator", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func buildEngine(cfg *config.Config, log *zap.Logger, cacheService ports.CacheService, ingestor analytics.Ingestor) *services.Engine {
	registry := services.NewRegistry()
	tracker := services.NewTracker(registry, cfg.Engine.Alpha)
	selector := services.NewSelector(
		cfg.Engine.SuccessWeight,
		cfg.Engine.SpeedWeight,
		cfg.Engine.PreferenceBonus,
	)
	allocator := services.NewAllocator(cfg.Engine.Ceiling, cfg.Engine.CostDivisorBytes)

	return services.NewEngine(
		log, registry, tracker, selector, allocator,
		cacheService, ingestor,
		services.EngineConfig{
			AttemptCap:         cfg.Engine.AttemptCap,
			DefaultTimeout:     time.Duration(cfg.Engine.DefaultTimeoutMS) * time.Millisecond,
			CapabilityTimeouts: capabilityTimeouts(cfg.Engine.CapabilityTimeoutMS),
		},
	)
}

func printBanner() {
	text := "model-orchestrator " + cmd.AppVersion
	for i, ch := range text {
		progress := float64(i) / float64(len(text)-1)
		fmt.Print(cli.Gradient(string(ch), cli.BrandBlue, cli.BrandPurple, progress))
	}
	fmt.Println()
}

func capabilityTimeouts(ms map[string]int64) map[domain.Capability]time.Duration {
	if len(ms) == 0 {
		return nil
	}
	out := make(map[domain.Capability]time.Duration, len(ms))
	for raw, v := range ms {
		capability, err := domain.ParseCapability(raw)
		if err != nil || v <= 0 {
			continue
		}
		out[capability] = time.Duration(v) * time.Millisecond
	}
	return out
}
