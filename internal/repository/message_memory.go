package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fathima-sithara/chat-backend/internal/models"
)

// MemoryMessageRepository keeps messages in process memory. It backs
// dev mode and tests; semantics mirror the mongo implementation.
type MemoryMessageRepository struct {
	mu   sync.RWMutex
	msgs []*models.Message
	byID map[string]*models.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{byID: make(map[string]*models.Message)}
}

func (r *MemoryMessageRepository) Insert(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.msgs = append(r.msgs, &cp)
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MemoryMessageRepository) ListConversation(_ context.Context, a, b string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Message
	for _, m := range r.msgs {
		if m.InConversation(a, b) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryMessageRepository) MarkSeen(_ context.Context, receiverID string, ids []string, at time.Time) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, id := range ids {
		m, ok := r.byID[id]
		if !ok || m.ReceiverID != receiverID || m.Seen {
			continue
		}
		seenAt := at
		m.Seen = true
		m.SeenAt = &seenAt
		m.UpdatedAt = at
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}
