package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/events"
	"github.com/fathima-sithara/chat-backend/internal/models"
	"github.com/fathima-sithara/chat-backend/internal/repository"
	"github.com/fathima-sithara/chat-backend/internal/ws"
)

// Notifier is the fan-out seam. The real implementation is ws.Router;
// tests substitute a fake and assert which notify calls happened.
type Notifier interface {
	Notify(userID, event string, payload any)
}

// MessageService ties persistence to real-time delivery. The ordering
// contract: the durable write always completes before any notify, so a
// client never sees a push for a message the read path cannot return.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	notifier Notifier
	events   *events.Publisher
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifier Notifier,
	pub *events.Publisher,
	logger *zap.SugaredLogger,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		notifier: notifier,
		events:   pub,
		logger:   logger,
		now:      time.Now,
	}
}

// Send persists a text message and notifies both parties. Empty text
// is accepted; clients that only attach a text field always send one.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text string) (*models.Message, error) {
	return s.send(ctx, senderID, receiverID, text, nil)
}

// SendDocument persists a message carrying an attachment descriptor.
// Validation and storage of the binary happen before this is called.
func (s *MessageService) SendDocument(ctx context.Context, senderID, receiverID string, doc *models.Document) (*models.Message, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document required", apperr.ErrValidation)
	}
	return s.send(ctx, senderID, receiverID, "", doc)
}

func (s *MessageService) send(ctx context.Context, senderID, receiverID, text string, doc *models.Document) (*models.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: sender and receiver required", apperr.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: receiver %s", apperr.ErrNotFound, receiverID)
		}
		return nil, fmt.Errorf("%w: receiver lookup: %v", apperr.ErrInternal, err)
	}

	now := s.now().UTC()
	m := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Document:   doc,
		Seen:       false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.messages.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("%w: persist message: %v", apperr.ErrInternal, err)
	}

	// Durable write done; fan-out from here on is fire-and-forget.
	// The sender gets the echo too so its other views stay in sync.
	s.notifier.Notify(receiverID, ws.EventNewMessage, m)
	s.notifier.Notify(senderID, ws.EventNewMessage, m)
	s.events.PublishMessageCreated(ctx, m)

	return m, nil
}

// ListConversation is symmetric in its arguments and ascending by
// creation time, which is the canonical conversation order.
func (s *MessageService) ListConversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	msgs, err := s.messages.ListConversation(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("%w: list conversation: %v", apperr.ErrInternal, err)
	}
	return msgs, nil
}

// MarkSeen flips the given messages to seen for the requester and
// tells both sides. Only messages addressed to the requester and still
// unseen are touched; everything else is skipped, not an error.
func (s *MessageService) MarkSeen(ctx context.Context, requesterID string, messageIDs []string) (int, error) {
	if requesterID == "" {
		return 0, fmt.Errorf("%w: requester required", apperr.ErrValidation)
	}
	updated, err := s.messages.MarkSeen(ctx, requesterID, messageIDs, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: mark seen: %v", apperr.ErrInternal, err)
	}
	for _, m := range updated {
		s.notifier.Notify(m.SenderID, ws.EventMessageSeen, m)
		s.notifier.Notify(m.ReceiverID, ws.EventMessageSeen, m)
		s.events.PublishMessageSeen(ctx, m)
	}
	return len(updated), nil
}

// ListPeers returns the conversation-partner directory for the
// sidebar: everyone except the requester, credentials stripped.
func (s *MessageService) ListPeers(ctx context.Context, requesterID string) ([]*models.User, error) {
	users, err := s.users.ListOthers(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: list peers: %v", apperr.ErrInternal, err)
	}
	return users, nil
}
