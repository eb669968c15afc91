package apps

import "sync"

// Registry tracks every live Manager so ownership of an app can be found.
type Registry struct {
	mu       sync.RWMutex
	managers []*Manager
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers = append(r.managers, m)
}

func (r *Registry) Unregister(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, other := range r.managers {
		if other == m {
			r.managers = append(r.managers[:i], r.managers[i+1:]...)
			return
		}
	}
}

// Owner returns the manager, other than exclude, that holds app or has
// a record for it in its bound state.
func (r *Registry) Owner(app *App, exclude *Manager) *Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.managers {
		if m != exclude && (m.holds(app) || m.recordIndex(app.InstanceID) != -1) {
			return m
		}
	}
	return nil
}
