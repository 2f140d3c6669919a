package presence

import (
	"sort"
	"sync"
)

// Conn is the minimal handle the registry keeps per user. The
// websocket layer implements it; tests substitute fakes.
type Conn interface {
	// Enqueue hands a marshalled event to the connection without
	// blocking. It reports false when the connection cannot accept
	// more data (closed or backed up).
	Enqueue(payload []byte) bool
}

// Registry is the ephemeral user->connection mapping. At most one
// connection is bound per user id; a later bind silently replaces the
// earlier one. Nothing here is persisted: after a restart everyone is
// offline until they reconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn

	// onChange receives the full online-id snapshot after every
	// mutation. Set once at wiring time, before any Bind.
	onChange func(online []string)
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) SetOnChange(fn func(online []string)) {
	r.onChange = fn
}

// Bind maps userID to conn, replacing any previous binding. The
// replaced connection, if any, is returned so the caller can close it.
func (r *Registry) Bind(userID string, conn Conn) Conn {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	snapshot := r.onlineLocked()
	r.mu.Unlock()

	if prev == conn {
		prev = nil
	}
	r.notify(snapshot)
	return prev
}

// UnbindConn removes the binding only if it still points at conn, so a
// stale disconnect never evicts a newer session for the same user.
func (r *Registry) UnbindConn(userID string, conn Conn) {
	r.mu.Lock()
	cur, ok := r.conns[userID]
	if !ok || cur != conn {
		r.mu.Unlock()
		return
	}
	delete(r.conns, userID)
	snapshot := r.onlineLocked()
	r.mu.Unlock()

	r.notify(snapshot)
}

func (r *Registry) UnbindUser(userID string) {
	r.mu.Lock()
	if _, ok := r.conns[userID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, userID)
	snapshot := r.onlineLocked()
	r.mu.Unlock()

	r.notify(snapshot)
}

func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

func (r *Registry) OnlineIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

// All returns every bound connection, for snapshot broadcasts.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) onlineLocked() []string {
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) notify(snapshot []string) {
	if r.onChange != nil {
		r.onChange(snapshot)
	}
}
