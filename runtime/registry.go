package runtime

import (
	"sync"

	"github.com/google/uuid"

	"cipher-relay/contract"
)

// Registry is the single piece of shared mutable state: the live mapping
// from username to connection. All access is serialized behind one lock.
type Registry struct {
	mu       sync.RWMutex
	Sessions map[string]contract.Session // map username -> live session
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions: make(map[string]contract.Session),
	}
}

// Register upserts the session for its username. Last registration wins: a
// username registered from a second connection silently orphans the first
// one's routing, without closing its channel.
func (r *Registry) Register(s contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[s.Username] = s
}

// Unregister drops the entry for a username, whatever connection holds it.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Sessions, username)
}

// UnregisterConn drops every entry still pointing at the given connection.
// An entry whose username was re-registered from a newer connection is left
// alone, so a stale close can never evict the replacement.
func (r *Registry) UnregisterConn(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for username, s := range r.Sessions {
		if s.ConnID == connID {
			delete(r.Sessions, username)
		}
	}
}

// Lookup resolves a username to its current session. Pure read.
func (r *Registry) Lookup(username string) (contract.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.Sessions[username]
	return s, ok
}

func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Sessions)
}
