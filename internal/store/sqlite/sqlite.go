package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/model-orchestrator/internal/store"
	"github.com/nulzo/model-orchestrator/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// Create a repository instance that uses the transaction
	txRepo := &SqliteRepository{
		db:       r.db, // Keep the original DB handle
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Dispatches() store.DispatchRepository {
	return &dispatchRepo{db: r.executor}
}

func (r *SqliteRepository) Backends() store.BackendRepository {
	return &backendRepo{db: r.executor}
}

type dispatchRepo struct {
	db DB
}

func (r *dispatchRepo) Log(ctx context.Context, log *model.DispatchLog) error {
	query := `
	INSERT INTO dispatch_logs (
		id, capability, model_id, outcome, attempts,
		failure_kinds, payload_bytes, latency_ms, created_at
	) VALUES (
		:id, :capability, :model_id, :outcome, :attempts,
		:failure_kinds, :payload_bytes, :latency_ms, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, log)
	return err
}

func (r *dispatchRepo) GetRecent(ctx context.Context, limit int) ([]model.DispatchLog, error) {
	var logs []model.DispatchLog
	query := `SELECT * FROM dispatch_logs ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &logs, query, limit)
	return logs, err
}

func (r *dispatchRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	var stats []model.DailyStats
	query := `
		SELECT
			DATE(created_at) as date,
			COUNT(*) as total_requests,
			SUM(CASE WHEN outcome = 'success' THEN 1 ELSE 0 END) as total_successes,
			SUM(CASE WHEN outcome = 'rejected' THEN 1 ELSE 0 END) as total_rejected,
			AVG(latency_ms) as avg_latency
		FROM dispatch_logs
		WHERE created_at >= DATE('now', ?)
		GROUP BY date
		ORDER BY date DESC
	`
	// SQLite date offset format is '-7 days'
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}

type backendRepo struct {
	db DB
}

func (r *backendRepo) ListEnabled(ctx context.Context) ([]model.Backend, error) {
	var backends []model.Backend
	err := r.db.SelectContext(ctx, &backends, `SELECT * FROM backends WHERE is_enabled = 1 ORDER BY created_at`)
	return backends, err
}

func (r *backendRepo) Upsert(ctx context.Context, b *model.Backend) error {
	query := `
	INSERT INTO backends (
		identity, provider, capabilities, adapter_type, base_url, api_key_enc,
		model, max_payload_bytes, max_concurrency, is_enabled, created_at, updated_at
	) VALUES (
		:identity, :provider, :capabilities, :adapter_type, :base_url, :api_key_enc,
		:model, :max_payload_bytes, :max_concurrency, :is_enabled, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
	)
	ON CONFLICT(identity) DO UPDATE SET
		provider = excluded.provider,
		capabilities = excluded.capabilities,
		adapter_type = excluded.adapter_type,
		base_url = excluded.base_url,
		api_key_enc = excluded.api_key_enc,
		model = excluded.model,
		max_payload_bytes = excluded.max_payload_bytes,
		max_concurrency = excluded.max_concurrency,
		is_enabled = excluded.is_enabled,
		updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.NamedExecContext(ctx, query, b)
	return err
}

func (r *backendRepo) Disable(ctx context.Context, identity string) error {
	query := `UPDATE backends SET is_enabled = 0, updated_at = ? WHERE identity = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), identity)
	return err
}
