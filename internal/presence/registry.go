package presence

import "sync"

// Conn is the transport handle stored for an online user. *hub.Client
// satisfies it.
type Conn interface {
	SendMessage(message interface{}) error
}

// Registry maps a user identity to its currently-connected transport handle.
// Exactly one live connection per user: a new registration overwrites the
// previous one (last-connection-wins). Pure in-memory state; a process
// restart clears it and clients re-announce on reconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register inserts or overwrites the mapping for userID and returns the
// replaced handle, if any.
func (r *Registry) Register(userID string, conn Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = conn
	if prev == conn {
		return nil
	}
	return prev
}

// Unregister removes the mapping only if the stored handle for the user is
// the given one. A stale disconnect therefore never evicts a live reconnect.
// Returns the userID and whether a mapping was removed.
func (r *Registry) Unregister(userID string, conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID == "" {
		return "", false
	}
	if cur, ok := r.conns[userID]; ok && cur == conn {
		delete(r.conns, userID)
		return userID, true
	}
	return "", false
}

// Lookup returns the live handle for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID]
	return conn, ok
}

// Online reports whether userID currently has a live connection.
func (r *Registry) Online(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}
