package domain

import "time"

// ModelDescriptor is the registered record of one backend. Everything except
// the performance record is fixed at registration time.
type ModelDescriptor struct {
	Identity        string       `json:"identity"`
	Provider        string       `json:"provider"`
	Capabilities    []Capability `json:"capabilities"`
	MaxPayloadBytes int64        `json:"max_payload_bytes,omitempty"`
	MaxConcurrency  int          `json:"max_concurrency,omitempty"`
}

// HasCapability reports whether the descriptor declares the given capability.
func (d ModelDescriptor) HasCapability(c Capability) bool {
	for _, dc := range d.Capabilities {
		if dc == c {
			return true
		}
	}
	return false
}

// PerformanceRecord is the rolling score history of one descriptor.
// SuccessRate and AvgLatencySeconds are exponential moving averages; both stay
// within their bounded ranges for any update sequence.
type PerformanceRecord struct {
	Attempts          uint64    `json:"attempts"`
	Successes         uint64    `json:"successes"`
	SuccessRate       float64   `json:"success_rate"`
	AvgLatencySeconds float64   `json:"avg_latency_seconds"`
	UpdatedAt         time.Time `json:"updated_at"`
}
