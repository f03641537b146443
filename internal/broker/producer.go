// Package broker bridges the outbox dispatcher and the import-request queue
// to Kafka via franz-go (SPEC_FULL.md §4.6). Catalog events fan out to
// downstream consumers; import-request messages drive BrokerBridge's
// consumer side into ImportEngine.
package broker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes outbox events to a single topic, satisfying
// outbox.Sender.
type Producer struct {
	client *kgo.Client
	topic  string
	log    zerolog.Logger
}

// NewProducer builds a Producer against addrs, targeting topic.
func NewProducer(addrs []string, topic string, log zerolog.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(addrs...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client, topic: topic, log: log.With().Str("component", "broker_producer").Logger()}, nil
}

// Send publishes one event, keyed by eventType so consumers can partition on
// event kind. It blocks until the broker acknowledges the write.
func (p *Producer) Send(ctx context.Context, eventType string, payload []byte) error {
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(eventType),
		Value: payload,
	}
	result := p.client.ProduceSync(ctx, record)
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, p.topic, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}
