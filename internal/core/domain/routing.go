package domain

import (
	"encoding/json"
	"time"
)

// Outcome is the terminal state of one routing call.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeRejected  Outcome = "rejected"
)

// RoutingRequest is one unit of work submitted to the engine. Immutable for
// the duration of the call. Context is opaque and passed through untouched.
type RoutingRequest struct {
	ID         string
	Capability Capability
	Payload    json.RawMessage
	Context    json.RawMessage
	Preferred  string
	Timeout    time.Duration
	NoFallback bool
}

// PayloadSize returns the declared size of the payload in bytes.
func (r *RoutingRequest) PayloadSize() int64 {
	return int64(len(r.Payload))
}

// AttemptFailure records why a single dispatch attempt failed, in order.
type AttemptFailure struct {
	Identity string        `json:"identity"`
	Kind     FailureKind   `json:"kind"`
	Reason   string        `json:"reason"`
	Latency  time.Duration `json:"latency_ms"`
}

// RoutingResult is the aggregated outcome of one routing call.
type RoutingResult struct {
	Outcome  Outcome          `json:"outcome"`
	Model    string           `json:"model,omitempty"`
	Attempts int              `json:"attempts"`
	Failures []AttemptFailure `json:"failures,omitempty"`
	Elapsed  time.Duration    `json:"elapsed_ms"`
	Output   json.RawMessage  `json:"output,omitempty"`
}
