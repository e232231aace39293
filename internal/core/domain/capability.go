package domain

import "fmt"

// Capability is a closed set of work categories a backend can declare.
// Unknown values are rejected at the API boundary, never matched by string.
type Capability string

const (
	CapabilityChat      Capability = "chat"
	CapabilityCode      Capability = "code"
	CapabilityVision    Capability = "vision"
	CapabilityEmbedding Capability = "embedding"
	CapabilityAudio     Capability = "audio"
)

// Capabilities lists every known capability in a stable order.
func Capabilities() []Capability {
	return []Capability{
		CapabilityChat,
		CapabilityCode,
		CapabilityVision,
		CapabilityEmbedding,
		CapabilityAudio,
	}
}

// ParseCapability converts an external string into a Capability.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown capability: %q", s)
	}
	return c, nil
}

func (c Capability) Valid() bool {
	switch c {
	case CapabilityChat, CapabilityCode, CapabilityVision, CapabilityEmbedding, CapabilityAudio:
		return true
	}
	return false
}

func (c Capability) String() string {
	return string(c)
}
