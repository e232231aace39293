package services

import (
	"sort"
	"sync"

	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
)

// entry pairs an immutable descriptor with its adapter and its mutable
// performance record. The record is guarded by its own mutex so concurrent
// requests targeting different backends never contend.
type entry struct {
	desc    domain.ModelDescriptor
	adapter ports.BackendAdapter
	seq     uint64

	mu   sync.Mutex
	perf domain.PerformanceRecord
}

// Candidate is a registry-mediated view of one descriptor, eligible to serve
// a routing request. Record is a copy taken at query time.
type Candidate struct {
	Descriptor domain.ModelDescriptor
	Record     domain.PerformanceRecord
	Adapter    ports.BackendAdapter

	seq uint64
}

// Registry is the model descriptor store. Descriptors are reachable only
// through it; query results carry copies, never live pointers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a descriptor and its adapter atomically. A registered
// descriptor is never visible partially constructed.
func (r *Registry) Register(desc domain.ModelDescriptor, adapter ports.BackendAdapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[desc.Identity]; exists {
		return domain.DuplicateIdentityError(desc.Identity)
	}

	r.entries[desc.Identity] = &entry{
		desc:    desc,
		adapter: adapter,
		seq:     r.nextSeq,
	}
	r.nextSeq++

	return nil
}

// Deregister removes a descriptor. Idempotent; a no-op if absent.
func (r *Registry) Deregister(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, identity)
}

// Query returns all candidates declaring the capability, in registration order.
func (r *Registry) Query(c domain.Capability) []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Candidate
	for _, e := range r.entries {
		if !e.desc.HasCapability(c) {
			continue
		}
		out = append(out, e.candidate())
	}

	sortBySeq(out)
	return out
}

// List returns every registered candidate in registration order.
func (r *Registry) List() []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Candidate, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.candidate())
	}

	sortBySeq(out)
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// lookup returns the live entry for tracker updates.
func (r *Registry) lookup(identity string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[identity]
	return e, ok
}

func (e *entry) candidate() Candidate {
	e.mu.Lock()
	perf := e.perf
	e.mu.Unlock()

	return Candidate{
		Descriptor: e.desc,
		Record:     perf,
		Adapter:    e.adapter,
		seq:        e.seq,
	}
}

func sortBySeq(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		return cands[i].seq < cands[j].seq
	})
}
