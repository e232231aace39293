package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nulzo/model-orchestrator/internal/backends"
	"github.com/nulzo/model-orchestrator/internal/cli"
	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
	"github.com/nulzo/model-orchestrator/internal/store"
	"go.uber.org/zap"

	// Adapter factories register themselves on import.
	_ "github.com/nulzo/model-orchestrator/internal/backends/httpapi"
	_ "github.com/nulzo/model-orchestrator/internal/backends/static"
)

// BootstrapBackends constructs and registers all enabled backends from
// configuration. Unhealthy or misconfigured backends are skipped, not fatal.
func BootstrapBackends(ctx context.Context, engine ports.Engine, cfgs []config.BackendConfig, log *zap.Logger) int {
	registeredCount := 0
	validate := validator.New()

	for _, bCfg := range cfgs {
		if !bCfg.Enabled {
			continue
		}

		// Validate backend configuration individually
		if err := validate.Struct(&bCfg); err != nil {
			log.Warn(fmt.Sprintf("%s %s %s",
				cli.CrossMark(),
				cli.Style(bCfg.ID, cli.Bold),
				cli.Style("Skipping backend due to invalid configuration", cli.Yellow),
			), zap.Error(err))
			continue
		}

		desc, err := descriptorFor(bCfg)
		if err != nil {
			log.Warn("Skipping backend with invalid capabilities",
				zap.String("id", bCfg.ID),
				zap.Error(err),
			)
			continue
		}

		adapter, err := backends.New(bCfg)
		if err != nil {
			log.Error("Failed to initialize backend",
				zap.String("id", bCfg.ID),
				zap.Error(err),
			)
			continue
		}

		// Perform Health Check
		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := adapter.Health(healthCtx); err != nil {
			cancel()
			log.Error("Backend unhealthy, skipping registration",
				zap.String("id", bCfg.ID),
				zap.Error(err))
			continue
		}
		cancel()

		if err := engine.Register(desc, adapter); err != nil {
			log.Error("Failed to register backend", zap.String("id", bCfg.ID), zap.Error(err))
			continue
		}

		log.Info(fmt.Sprintf("%s %s %s",
			cli.CheckMark(),
			cli.Style(bCfg.ID, cli.Bold),
			cli.Style(fmt.Sprintf("registered (%s)", bCfg.Type), cli.Green),
		))
		registeredCount++
	}

	if registeredCount == 0 {
		log.Warn("No backends were registered. Routing will not function.")
	}

	return registeredCount
}

// BootstrapPersisted registers backends previously stored through the seed
// tool or the registration API. Rows whose identity is already registered
// from file configuration are skipped.
func BootstrapPersisted(ctx context.Context, engine ports.Engine, repo store.Repository, log *zap.Logger) int {
	rows, err := repo.Backends().ListEnabled(ctx)
	if err != nil {
		log.Error("Failed to load persisted backends", zap.Error(err))
		return 0
	}

	known := make(map[string]bool)
	for _, v := range engine.List() {
		known[v.Identity] = true
	}

	cfgs := make([]config.BackendConfig, 0, len(rows))
	for _, row := range rows {
		if known[row.Identity] {
			continue
		}

		var caps []string
		if err := json.Unmarshal([]byte(row.Capabilities), &caps); err != nil {
			log.Warn("Skipping persisted backend with malformed capabilities",
				zap.String("identity", row.Identity),
				zap.Error(err),
			)
			continue
		}

		cfgs = append(cfgs, config.BackendConfig{
			ID:              row.Identity,
			Provider:        row.Provider,
			Type:            row.AdapterType,
			BaseURL:         row.BaseURL,
			APIKey:          row.APIKeyEnc,
			Model:           row.Model,
			Capabilities:    caps,
			MaxPayloadBytes: row.MaxPayloadBytes,
			MaxConcurrency:  row.MaxConcurrency,
			Enabled:         row.IsEnabled,
		})
	}

	if len(cfgs) == 0 {
		return 0
	}
	return BootstrapBackends(ctx, engine, cfgs, log)
}

func descriptorFor(cfg config.BackendConfig) (domain.ModelDescriptor, error) {
	caps := make([]domain.Capability, 0, len(cfg.Capabilities))
	for _, raw := range cfg.Capabilities {
		c, err := domain.ParseCapability(raw)
		if err != nil {
			return domain.ModelDescriptor{}, err
		}
		caps = append(caps, c)
	}

	return domain.ModelDescriptor{
		Identity:        cfg.ID,
		Provider:        cfg.Provider,
		Capabilities:    caps,
		MaxPayloadBytes: cfg.MaxPayloadBytes,
		MaxConcurrency:  cfg.MaxConcurrency,
	}, nil
}
