package app

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
)

// Registry holds app manifests by id
type Registry struct {
	mu        sync.RWMutex
	manifests map[string]Manifest // Protected by mu
	logger    *logging.Logger
}

// NewRegistry creates an empty manifest registry
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		manifests: make(map[string]Manifest),
		logger:    logger.Named("apps"),
	}
}

// Add registers m. Re-registering an id replaces the manifest.
func (r *Registry) Add(m Manifest) bool {
	if m.ID == "" {
		r.logger.Error("app manifest without id")
		return false
	}

	r.mu.Lock()
	_, replaced := r.manifests[m.ID]
	r.manifests[m.ID] = m
	r.mu.Unlock()

	if replaced {
		r.logger.Warn("app manifest replaced", zap.String("id", m.ID))
	} else {
		r.logger.Debug("app manifest added", zap.String("id", m.ID))
	}
	return true
}

// Find returns the manifest with id
func (r *Registry) Find(id string) (Manifest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.manifests[id]
	return m, ok
}

// List returns every manifest sorted by name, then id
func (r *Registry) List() []Manifest {
	return r.list(func(Manifest) bool { return true })
}

// ListVisible returns the manifests the launcher shows
func (r *Registry) ListVisible() []Manifest {
	return r.list(Manifest.Visible)
}

func (r *Registry) list(keep func(Manifest) bool) []Manifest {
	r.mu.RLock()
	out := make([]Manifest, 0, len(r.manifests))
	for _, m := range r.manifests {
		if keep(m) {
			out = append(out, m)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
