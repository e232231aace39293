package store

import (
	"context"

	"github.com/nulzo/model-orchestrator/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Dispatches() DispatchRepository
	Backends() BackendRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type DispatchRepository interface {
	// Log stores a completed routing call.
	Log(ctx context.Context, log *model.DispatchLog) error
	// GetRecent returns the last N dispatch logs.
	GetRecent(ctx context.Context, limit int) ([]model.DispatchLog, error)
	// GetDailyStats returns aggregated stats grouped by day.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}

type BackendRepository interface {
	// ListEnabled returns all enabled backend registrations.
	ListEnabled(ctx context.Context) ([]model.Backend, error)
	// Upsert creates or refreshes a backend registration row.
	Upsert(ctx context.Context, b *model.Backend) error
	// Disable marks a backend as deregistered.
	Disable(ctx context.Context, identity string) error
}
