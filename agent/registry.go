package agent

import (
	"fmt"
	"iter"
	"slices"
	"sync"
)

// Definition is the static description of an agent: identity, the system
// instructions driving its behavior, the set of tool names it may invoke and
// free-form capability tags used for routing. Definitions are immutable once
// registered; they are created at registry initialization and never mutated
// at runtime.
type Definition struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Instructions string   `json:"instructions" yaml:"instructions"`
	Tools        []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// HasCapability reports whether the definition carries the given tag.
func (d Definition) HasCapability(tag string) bool {
	return slices.Contains(d.Capabilities, tag)
}

// ErrDuplicateAgent is returned when registering an already known agent id.
var ErrDuplicateAgent = fmt.Errorf("agent already registered")

// ErrAgentNotFound is returned when looking up an unknown agent id.
var ErrAgentNotFound = fmt.Errorf("agent not found")

// Registry maps agent identifiers to their static definitions. Pure lookup,
// no runtime state; read operations never mutate. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry constructs an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. Fails with ErrDuplicateAgent if the id exists.
func (r *Registry) Register(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("agent id must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, def.ID)
	}
	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	return nil
}

// Lookup returns the definition for id. Fails with ErrAgentNotFound if absent.
func (r *Registry) Lookup(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return def, nil
}

// IDs returns all registered agent ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// FindByCapability returns a lazy, order-stable sequence of definitions
// carrying the tag, in registration order. An empty sequence, not an error,
// when nothing matches. The sequence iterates over a snapshot taken when
// iteration starts, so concurrent registration never corrupts a consumer.
func (r *Registry) FindByCapability(tag string) iter.Seq[Definition] {
	return func(yield func(Definition) bool) {
		r.mu.RLock()
		snapshot := make([]Definition, 0, len(r.order))
		for _, id := range r.order {
			snapshot = append(snapshot, r.defs[id])
		}
		r.mu.RUnlock()

		for _, def := range snapshot {
			if !def.HasCapability(tag) {
				continue
			}
			if !yield(def) {
				return
			}
		}
	}
}
