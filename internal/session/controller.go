package session

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/ws"
)

// API is the slice of the REST surface the controller needs. The
// production client backs it with HTTP calls; tests back it with
// fakes.
type API interface {
	ListConversation(ctx context.Context, peerID string) ([]*models.Message, error)
	MarkSeen(ctx context.Context, messageIDs []string) (int, error)
	ListPeers(ctx context.Context) ([]*models.User, error)
}

// Controller keeps the client-side view of one active conversation
// consistent: it merges REST-fetched history with push events, issues
// seen-acknowledgements, and tracks the online-peer set. All merging
// is keyed by message id so duplicate delivery is harmless.
type Controller struct {
	api          API
	self         string
	pollInterval time.Duration
	logger       *zap.SugaredLogger

	mu         sync.Mutex
	peer       string
	subscribed bool
	messages   []*models.Message
	index      map[string]int
	online     map[string]struct{}
}

func NewController(selfID string, api API, pollInterval time.Duration, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		api:          api,
		self:         selfID,
		pollInterval: pollInterval,
		logger:       logger,
		index:        make(map[string]int),
		online:       make(map[string]struct{}),
	}
}

// SelectPeer makes peerID the active conversation: previous event
// handling is detached first, history is fetched, and every fetched
// unseen message addressed to us is acknowledged in one batch. The
// server never auto-marks on fetch; read receipts are client-driven.
func (c *Controller) SelectPeer(ctx context.Context, peerID string) error {
	c.Unsubscribe()

	history, err := c.api.ListConversation(ctx, peerID)
	if err != nil {
		return err
	}

	var unseen []string
	c.mu.Lock()
	c.peer = peerID
	c.subscribed = true
	c.messages = nil
	c.index = make(map[string]int)
	for _, m := range history {
		c.appendLocked(m)
		if m.ReceiverID == c.self && !m.Seen {
			unseen = append(unseen, m.ID)
		}
	}
	c.mu.Unlock()

	if len(unseen) > 0 {
		if _, err := c.api.MarkSeen(ctx, unseen); err != nil {
			c.logger.Warnw("mark seen batch failed", "count", len(unseen), "err", err)
		} else {
			c.flipSeenLocally(unseen)
		}
	}
	return nil
}

// Unsubscribe detaches event handling for the active conversation so
// switching chats never double-handles pushes.
func (c *Controller) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = false
	c.peer = ""
}

// HandleEnvelope feeds one push event into the controller. It is safe
// to call from the websocket read loop.
func (c *Controller) HandleEnvelope(ctx context.Context, env *ws.Envelope) {
	switch env.Event {
	case ws.EventNewMessage:
		var m models.Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return
		}
		c.handleNewMessage(ctx, &m)
	case ws.EventMessageSeen:
		var m models.Message
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return
		}
		c.handleMessageSeen(&m)
	case ws.EventOnlineUsers:
		var ids []string
		if err := json.Unmarshal(env.Data, &ids); err != nil {
			return
		}
		c.handleOnlineUsers(ids)
	}
}

func (c *Controller) handleNewMessage(ctx context.Context, m *models.Message) {
	c.mu.Lock()
	if !c.subscribed || !m.InConversation(c.self, c.peer) {
		c.mu.Unlock()
		return
	}
	c.appendLocked(m)
	needAck := m.ReceiverID == c.self && !m.Seen
	c.mu.Unlock()

	if needAck {
		if _, err := c.api.MarkSeen(ctx, []string{m.ID}); err != nil {
			c.logger.Warnw("mark seen failed", "message", m.ID, "err", err)
			return
		}
		c.flipSeenLocally([]string{m.ID})
	}
}

// handleMessageSeen applies by id regardless of the active
// conversation so unread badges stay correct across chats.
func (c *Controller) handleMessageSeen(m *models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[m.ID]; ok {
		c.messages[i].Seen = m.Seen
		c.messages[i].SeenAt = m.SeenAt
	}
}

func (c *Controller) handleOnlineUsers(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		c.online[id] = struct{}{}
	}
}

// Run is the coarse poll fallback: push delivery is best-effort, so
// the active conversation is refetched on a low-frequency interval to
// recover anything missed across reconnect gaps.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

func (c *Controller) refresh(ctx context.Context) {
	c.mu.Lock()
	peer := c.peer
	subscribed := c.subscribed
	c.mu.Unlock()
	if !subscribed || peer == "" {
		return
	}

	history, err := c.api.ListConversation(ctx, peer)
	if err != nil {
		c.logger.Debugw("poll refresh failed", "peer", peer, "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer != peer || !c.subscribed {
		return
	}
	for _, m := range history {
		if i, ok := c.index[m.ID]; ok {
			c.messages[i].Seen = m.Seen
			c.messages[i].SeenAt = m.SeenAt
			continue
		}
		c.appendLocked(m)
	}
}

// appendLocked inserts a message once, keeping ascending creation
// order. Duplicate ids are ignored.
func (c *Controller) appendLocked(m *models.Message) {
	if _, ok := c.index[m.ID]; ok {
		return
	}
	cp := *m
	c.messages = append(c.messages, &cp)
	sort.SliceStable(c.messages, func(i, j int) bool {
		return c.messages[i].CreatedAt.Before(c.messages[j].CreatedAt)
	})
	c.reindexLocked()
}

func (c *Controller) reindexLocked() {
	for i, m := range c.messages {
		c.index[m.ID] = i
	}
}

func (c *Controller) flipSeenLocally(ids []string) {
	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if i, ok := c.index[id]; ok && !c.messages[i].Seen {
			at := now
			c.messages[i].Seen = true
			c.messages[i].SeenAt = &at
		}
	}
}

// Messages returns a copy of the active conversation, ascending by
// creation time.
func (c *Controller) Messages() []*models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Message, len(c.messages))
	for i, m := range c.messages {
		cp := *m
		out[i] = &cp
	}
	return out
}

func (c *Controller) IsOnline(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.online[userID]
	return ok
}

func (c *Controller) OnlineIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.online))
	for id := range c.online {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
