package chat

import "sync"

// Connection is a live, addressable client connection. Pushes are
// fire-and-forget: a slow or dead connection must never block the
// caller.
type Connection interface {
	Push(event string, data any)
}

// Registry is the bidirectional identity <-> connection map. It is the
// single source of truth for who is reachable right now. Process-local
// by design; sharding it across processes would need an external shared
// registry.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Connection
	byConn map[Connection]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]Connection),
		byConn: make(map[Connection]string),
	}
}

// Register maps userID to conn, replacing any prior connection for the
// same identity. The replaced handle is not closed here; its transport
// session simply stops being addressable by identity.
func (r *Registry) Register(userID string, conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byUser[userID]; ok && old != conn {
		delete(r.byConn, old)
	}
	r.byUser[userID] = conn
	r.byConn[conn] = userID
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[userID]
	return conn, ok
}

// Unregister removes the mapping for conn only if it is still the
// current connection for its identity. A stale disconnect arriving
// after a fast reconnect is therefore a no-op and cannot evict the
// newer registration. Returns the identity removed.
func (r *Registry) Unregister(conn Connection) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	if r.byUser[userID] == conn {
		delete(r.byUser, userID)
		return userID, true
	}
	return "", false
}

// Online returns the number of registered identities.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
