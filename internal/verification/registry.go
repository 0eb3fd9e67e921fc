package verification

import (
	"sync"

	"github.com/gateward/gateward/internal/model"
)

// Registry owns the set of live verification sessions, keyed by
// connection identity. Insertions, disconnect-triggered removals, and
// the supervisor sweep may race; all access is guarded here. The
// registry is owned by an engine instance, never global.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.ConnectionID]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[model.ConnectionID]*Session),
	}
}

// Add registers a session. At most one session may exist per connection;
// a duplicate insert returns model.ErrSessionExists.
func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ConnID()]; exists {
		return model.ErrSessionExists
	}
	r.sessions[s.ConnID()] = s
	return nil
}

// Get returns the session for a connection, if any
func (r *Registry) Get(connID model.ConnectionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[connID]
	return s, ok
}

// Remove deregisters a session. Removal is idempotent: only the first
// caller gets ok=true, which makes it the single finalization point.
func (r *Registry) Remove(connID model.ConnectionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return s, ok
}

// Snapshot returns the current sessions; used by the supervisor sweep
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
