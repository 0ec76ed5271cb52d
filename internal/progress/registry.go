package progress

import "sync"

// Registry keeps the trackers of in-flight and recently finished runs so the
// HTTP API can report per-stage progress by run id.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

func NewRegistry() *Registry {
	return &Registry{trackers: make(map[string]*Tracker)}
}

func (r *Registry) Add(t *Tracker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackers[t.RunID()] = t
}

func (r *Registry) Get(runID string) (*Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trackers[runID]
	return t, ok
}

func (r *Registry) Remove(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trackers, runID)
}
