package model

import "time"

// Backend is the persisted registration record of one backend descriptor.
type Backend struct {
	Identity        string    `db:"identity" json:"identity"`
	Provider        string    `db:"provider" json:"provider"`
	Capabilities    string    `db:"capabilities" json:"capabilities"` // JSON array
	AdapterType     string    `db:"adapter_type" json:"adapter_type"`
	BaseURL         string    `db:"base_url" json:"base_url"`
	APIKeyEnc       string    `db:"api_key_enc" json:"-"`
	Model           string    `db:"model" json:"model"`
	MaxPayloadBytes int64     `db:"max_payload_bytes" json:"max_payload_bytes"`
	MaxConcurrency  int       `db:"max_concurrency" json:"max_concurrency"`
	IsEnabled       bool      `db:"is_enabled" json:"is_enabled"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// DispatchLog captures the terminal outcome of one routing call.
type DispatchLog struct {
	ID           string    `db:"id" json:"id"`
	Capability   string    `db:"capability" json:"capability"`
	ModelID      string    `db:"model_id" json:"model_id"`
	Outcome      string    `db:"outcome" json:"outcome"`
	Attempts     int       `db:"attempts" json:"attempts"`
	FailureKinds string    `db:"failure_kinds" json:"failure_kinds"` // JSON array, attempt order
	PayloadBytes int64     `db:"payload_bytes" json:"payload_bytes"`
	LatencyMS    int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// DailyStats represents aggregated routing data for a specific day.
type DailyStats struct {
	Date           string  `db:"date" json:"date"`
	TotalRequests  int     `db:"total_requests" json:"total_requests"`
	TotalSuccesses int     `db:"total_successes" json:"total_successes"`
	TotalRejected  int     `db:"total_rejected" json:"total_rejected"`
	AverageLatency float64 `db:"avg_latency" json:"avg_latency"`
}
