package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/growthdesk/storefront/internal/api/metrics"
	"github.com/growthdesk/storefront/internal/core/domain"
)

// messageWriter is the subset of *kafka.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config captures the settings for the order event writer.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes order events to a Kafka topic keyed by order id, so every
// event of one order lands on the same partition.
type Publisher struct {
	w messageWriter
}

func NewPublisher(cfg Config) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (p *Publisher) Publish(ctx context.Context, e domain.OrderEvent) error {
	start := time.Now()
	defer func() {
		metrics.EventPublishDuration.WithLabelValues(e.Type).Observe(time.Since(start).Seconds())
	}()

	val, err := json.Marshal(e)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("marshal order event: %w", err)
	}

	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: val,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.ID)},
		},
	})
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("write order event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(e.Type, "ok").Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
