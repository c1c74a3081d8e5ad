package session

import "sync"

// Registry caches sessions inside one process. Implementations must be safe
// for concurrent use by different sessions.
type Registry interface {
	Get(id string) (Session, bool)
	Put(s Session)
	Delete(id string)
}

// MemoryRegistry is a mutex guarded map. Values are copied in and out so
// callers never share slices.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]Session)}
}

func (r *MemoryRegistry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return s.clone(), true
}

func (r *MemoryRegistry) Put(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s.clone()
}

func (r *MemoryRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of cached sessions.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
