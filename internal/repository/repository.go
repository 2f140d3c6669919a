package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/chat-backend/internal/models"
)

var ErrNotFound = errors.New("not found")

// MessageRepository is the durable message store. It is the single
// source of truth for delivery state; the presence layer is advisory.
type MessageRepository interface {
	Insert(ctx context.Context, m *models.Message) error

	// ListConversation returns every message exchanged between a and b,
	// in either direction, ascending by creation time.
	ListConversation(ctx context.Context, a, b string) ([]*models.Message, error)

	// MarkSeen flips seen/seenAt for the given message ids, but only
	// where receiverID matches and the message is still unseen. It
	// returns the messages it updated; ids that match nothing are
	// skipped silently.
	MarkSeen(ctx context.Context, receiverID string, ids []string, at time.Time) ([]*models.Message, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)

	// ListOthers returns every user except the given one, with
	// credential fields stripped.
	ListOthers(ctx context.Context, excludeID string) ([]*models.User, error)
}
