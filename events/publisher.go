package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher fans domain events out to Kafka. Publishing is best effort from
// the caller's point of view: scoring has already been committed when events
// go out, so callers log failures instead of rolling back.
type Publisher struct {
	resultWriter     *kafka.Writer
	betScoredWriter  *kafka.Writer
	invitationWriter *kafka.Writer
}

func NewPublisher(brokers string) *Publisher {
	return &Publisher{
		resultWriter:     newWriter(brokers, TopicResultAvailable),
		betScoredWriter:  newWriter(brokers, TopicBetScored),
		invitationWriter: newWriter(brokers, TopicInvitationCreated),
	}
}

func newWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

func (p *Publisher) PublishResultAvailable(ctx context.Context, event ResultAvailable) error {
	return writeJSON(ctx, p.resultWriter, event.PoolSlug, event)
}

func (p *Publisher) PublishBetScored(ctx context.Context, event BetScored) error {
	return writeJSON(ctx, p.betScoredWriter, event.PoolSlug, event)
}

func (p *Publisher) PublishInvitationCreated(ctx context.Context, event InvitationCreated) error {
	return writeJSON(ctx, p.invitationWriter, event.PoolSlug, event)
}

func (p *Publisher) Close() error {
	for _, w := range []*kafka.Writer{p.resultWriter, p.betScoredWriter, p.invitationWriter} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(ctx context.Context, w *kafka.Writer, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event to %s: %w", w.Topic, err)
	}
	return nil
}
