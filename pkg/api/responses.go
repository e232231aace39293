package api

import "encoding/json"

// InvokeResponse is the raw result of one successful dispatch attempt.
type InvokeResponse struct {
	Output json.RawMessage `json:"output"`
	Model  string          `json:"model,omitempty"`
}

// RouteResponse is the terminal result returned to the caller.
type RouteResponse struct {
	ID        string           `json:"id"`
	Outcome   string           `json:"outcome"`
	Model     string           `json:"model,omitempty"`
	Attempts  int              `json:"attempts"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Output    json.RawMessage  `json:"output,omitempty"`
	Failures  []AttemptFailure `json:"failures,omitempty"`
}

// AttemptFailure is one entry of the ordered per-attempt failure list.
type AttemptFailure struct {
	Identity  string `json:"identity"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
	LatencyMS int64  `json:"latency_ms"`
}

// BackendView is the read-only projection of one registered descriptor.
type BackendView struct {
	Identity          string   `json:"identity"`
	Provider          string   `json:"provider"`
	Capabilities      []string `json:"capabilities"`
	Score             float64  `json:"score"`
	SuccessRate       float64  `json:"success_rate"`
	AvgLatencySeconds float64  `json:"avg_latency_seconds"`
	Attempts          uint64   `json:"attempts"`
}

// StatusView is a consistent snapshot for external monitoring.
type StatusView struct {
	Backends []BackendView `json:"backends"`
	InFlight int64         `json:"in_flight"`
	Used     int64         `json:"used_budget"`
	Ceiling  int64         `json:"ceiling"`
}

// ErrorResponse is the minimal error body used outside RFC 9457 problems.
type ErrorResponse struct {
	Message string `json:"message"`
}
