package services

import (
	"testing"

	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatDescriptor(identity string) domain.ModelDescriptor {
	return domain.ModelDescriptor{
		Identity:     identity,
		Provider:     "test",
		Capabilities: []domain.Capability{domain.CapabilityChat},
	}
}

func TestRegistry_RegisterAndQuery(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(chatDescriptor("a"), nil))
	require.NoError(t, r.Register(domain.ModelDescriptor{
		Identity:     "b",
		Provider:     "test",
		Capabilities: []domain.Capability{domain.CapabilityChat, domain.CapabilityVision},
	}, nil))
	require.NoError(t, r.Register(domain.ModelDescriptor{
		Identity:     "c",
		Provider:     "test",
		Capabilities: []domain.Capability{domain.CapabilityCode},
	}, nil))

	chat := r.Query(domain.CapabilityChat)
	require.Len(t, chat, 2)

	// Registration order is preserved
	assert.Equal(t, "a", chat[0].Descriptor.Identity)
	assert.Equal(t, "b", chat[1].Descriptor.Identity)

	vision := r.Query(domain.CapabilityVision)
	require.Len(t, vision, 1)
	assert.Equal(t, "b", vision[0].Descriptor.Identity)

	assert.Empty(t, r.Query(domain.CapabilityAudio))
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_DuplicateIdentity(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(chatDescriptor("a"), nil))

	err := r.Register(chatDescriptor("a"), nil)
	require.Error(t, err)

	var problem *domain.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, "Duplicate Identity", problem.Title)
}

func TestRegistry_DeregisterIdempotent(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(chatDescriptor("a"), nil))
	assert.Equal(t, 1, r.Len())

	r.Deregister("a")
	assert.Equal(t, 0, r.Len())

	// Second deregistration is a no-op, never an error
	r.Deregister("a")
	assert.Equal(t, 0, r.Len())

	// Absent identity is also a no-op
	r.Deregister("never-registered")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_QueryReturnsCopies(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(chatDescriptor("a"), nil))

	first := r.Query(domain.CapabilityChat)
	first[0].Record.Attempts = 99

	second := r.Query(domain.CapabilityChat)
	assert.Equal(t, uint64(0), second[0].Record.Attempts)
}
