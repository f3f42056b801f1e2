package app

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Publisher is a WHIP resource that can be torn down by id.
type Publisher interface {
	Close()
}

// Registry maps WHIP resource ids to their publishers.
type Registry struct {
	mu         sync.RWMutex
	publishers map[string]Publisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[string]Publisher)}
}

func (r *Registry) Bind(id string, p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[id] = p
	log.Info().Str("module", "app.registry").Str("whip_id", id).Msg("bound publisher")
}

// Unbind forgets id. It reports whether id was known.
func (r *Registry) Unbind(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.publishers[id]; !ok {
		return false
	}
	delete(r.publishers, id)
	log.Info().Str("module", "app.registry").Str("whip_id", id).Msg("unbind publisher")
	return true
}

// Close closes the publisher bound to id outside the lock.
func (r *Registry) Close(id string) bool {
	r.mu.RLock()
	p, ok := r.publishers[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	p.Close()
	log.Info().Str("module", "app.registry").Str("whip_id", id).Msg("closed publisher")
	return true
}

// CloseAll closes every publisher, e.g. on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	all := make([]Publisher, 0, len(r.publishers))
	for _, p := range r.publishers {
		all = append(all, p)
	}
	r.mu.RUnlock()
	for _, p := range all {
		p.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.publishers)
}
