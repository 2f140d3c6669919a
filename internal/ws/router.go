package ws

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/presence"
)

// Router fans events out to live connections. Delivery is best-effort
// and at-most-once: no queueing, no retry, no persistence of missed
// events. Offline users catch up through the history read path.
type Router struct {
	registry *presence.Registry
	logger   *zap.SugaredLogger
}

func NewRouter(registry *presence.Registry, logger *zap.SugaredLogger) *Router {
	r := &Router{registry: registry, logger: logger}
	registry.SetOnChange(r.broadcastSnapshot)
	return r
}

// Notify pushes a named event to the user's connection if one is
// bound. A missing binding is a silent no-op.
func (r *Router) Notify(userID, event string, payload any) {
	conn, ok := r.registry.Lookup(userID)
	if !ok {
		r.logger.Debugw("notify skipped, user offline", "user", userID, "event", event)
		return
	}
	env, err := NewEnvelope(event, payload)
	if err != nil {
		r.logger.Warnw("notify marshal failed", "event", event, "err", err)
		return
	}
	b, _ := json.Marshal(env)
	if !conn.Enqueue(b) {
		// Slow or dying consumer. Dropping is the contract; the
		// connection's own pumps handle teardown.
		r.logger.Debugw("notify dropped, connection backed up", "user", userID, "event", event)
	}
}

// BroadcastOnline pushes the current online-id snapshot to every bound
// connection so sidebars converge after any presence change.
func (r *Router) BroadcastOnline() {
	r.broadcastSnapshot(r.registry.OnlineIDs())
}

func (r *Router) broadcastSnapshot(online []string) {
	env, err := NewEnvelope(EventOnlineUsers, online)
	if err != nil {
		return
	}
	b, _ := json.Marshal(env)
	for _, c := range r.registry.All() {
		_ = c.Enqueue(b)
	}
}
