package papersources

import (
	"sync"

	"github.com/helixir/research-paper-finder/internal/domain"
)

// Registry holds the guarded providers a search fans out to. Registration
// order is preserved and defines the deterministic provider dispatch order.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []domain.SourceType
	sources map[domain.SourceType]*Guarded
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]*Guarded),
	}
}

// Register adds a provider. A provider of the same type already present is
// replaced in place and keeps its dispatch position.
func (r *Registry) Register(source *Guarded) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := source.SourceType()
	if _, ok := r.sources[st]; !ok {
		r.order = append(r.order, st)
	}
	r.sources[st] = source
}

// Sources returns the registered providers in dispatch order.
// The returned slice is a snapshot.
func (r *Registry) Sources() []*Guarded {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]*Guarded, 0, len(r.order))
	for _, st := range r.order {
		sources = append(sources, r.sources[st])
	}
	return sources
}

// Names returns the display names of the registered providers in dispatch order.
func (r *Registry) Names() []string {
	sources := r.Sources()
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
