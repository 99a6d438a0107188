// Package events publishes domain events after state changes commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderCancelled     = "order.cancelled"
	OrderReviewed      = "order.reviewed"
	GreenSealApproved  = "green_seal.approved"
	GreenSealRejected  = "green_seal.rejected"
	ProposalAccepted   = "proposal.accepted"
)

// Event is a single domain event. Key is the id of the entity it concerns
// and is used as the Kafka message key, so events for one entity stay
// ordered within a partition.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// New builds an event stamped with the current time.
func New(eventType, key string, payload any) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers. Writes
// are asynchronous; delivery failures are logged, never returned to callers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) Publisher {
	logger = logger.With().Str("component", "events").Str("topic", topic).Logger()

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error().Err(err).Int("count", len(messages)).Msg("failed to deliver events")
			}
		},
	}

	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger zerolog.Logger) *kafkaPublisher {
	return &kafkaPublisher{writer: writer, logger: logger}
}

// Publish encodes events as JSON and hands them to the writer.
func (p *kafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", evt.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(evt.Key),
			Value: data,
			Time:  evt.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(evt.Type)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish events: %w", err)
	}

	p.logger.Debug().Int("count", len(msgs)).Str("type", events[0].Type).Msg("events published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type nopPublisher struct {
	logger zerolog.Logger
}

// NewNopPublisher returns a publisher that only logs events at debug level.
func NewNopPublisher(logger zerolog.Logger) Publisher {
	return &nopPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *nopPublisher) Publish(_ context.Context, events ...Event) error {
	for _, evt := range events {
		p.logger.Debug().Str("type", evt.Type).Str("key", evt.Key).Msg("event dropped, no broker configured")
	}
	return nil
}

func (p *nopPublisher) Close() error {
	return nil
}
