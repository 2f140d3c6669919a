package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/models"
)

// Publisher emits message lifecycle events to Kafka for downstream
// consumers (search indexing, notification digests). Like the push
// channel, it is best-effort: failures are logged and swallowed, and a
// nil *Publisher is a no-op so the wiring can leave Kafka out entirely.
type Publisher struct {
	created *kafkago.Writer
	seen    *kafkago.Writer
	logger  *zap.SugaredLogger
}

func NewPublisher(brokers []string, topicCreated, topicSeen string, logger *zap.SugaredLogger) *Publisher {
	newWriter := func(topic string) *kafkago.Writer {
		return &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireAll,
			Async:        false,
		}
	}
	return &Publisher{
		created: newWriter(topicCreated),
		seen:    newWriter(topicSeen),
		logger:  logger,
	}
}

func (p *Publisher) PublishMessageCreated(ctx context.Context, m *models.Message) {
	if p == nil {
		return
	}
	p.publish(ctx, p.created, m)
}

func (p *Publisher) PublishMessageSeen(ctx context.Context, m *models.Message) {
	if p == nil {
		return
	}
	p.publish(ctx, p.seen, m)
}

func (p *Publisher) publish(ctx context.Context, w *kafkago.Writer, m *models.Message) {
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	msg := kafkago.Message{
		Key:   []byte(m.ID),
		Value: b,
		Time:  time.Now(),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		p.logger.Warnw("kafka publish failed", "topic", w.Topic, "err", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.created.Close(); err != nil {
		return err
	}
	return p.seen.Close()
}
