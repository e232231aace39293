package api

import "encoding/json"

// RouteRequest submits one unit of work to the routing engine.
type RouteRequest struct {
	// The required capability, one of the closed enum (chat, code, vision, embedding, audio)
	Capability string `json:"capability" binding:"required"`

	// Opaque payload forwarded to the serving backend
	Payload json.RawMessage `json:"payload" binding:"required"`

	// Opaque conversation context, passed through untouched
	Context json.RawMessage `json:"context,omitempty"`

	// Optional explicit preference; bonus-weighted during ranking
	PreferredModel string `json:"preferred_model,omitempty"`

	// When set, only the preferred model is attempted (no fallback)
	NoFallback bool `json:"no_fallback,omitempty"`

	// Per-attempt timeout override in milliseconds
	TimeoutMS int64 `json:"timeout_ms,omitempty" binding:"omitempty,gt=0"`
}

// RegisterBackendRequest registers a new backend descriptor at runtime.
type RegisterBackendRequest struct {
	Identity     string   `json:"identity" binding:"required"`
	Provider     string   `json:"provider" binding:"required"`
	Capabilities []string `json:"capabilities" binding:"required,min=1"`

	// Adapter wiring
	Type    string `json:"type" binding:"required,oneof=http static"`
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	Model   string `json:"model,omitempty"`

	// Declared limits
	MaxPayloadBytes int64 `json:"max_payload_bytes,omitempty"`
	MaxConcurrency  int   `json:"max_concurrency,omitempty"`
}

// InvokeRequest is what the engine hands to a backend adapter for one
// dispatch attempt.
type InvokeRequest struct {
	Model      string          `json:"model"`
	Capability string          `json:"capability"`
	Payload    json.RawMessage `json:"payload"`
	Context    json.RawMessage `json:"context,omitempty"`
}
