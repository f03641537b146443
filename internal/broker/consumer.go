package broker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/vmihailenco/msgpack/v5"
)

// ImportRequest is the consumer-side message shape for on-demand series
// imports (SPEC_FULL.md §4.6).
type ImportRequest struct {
	SeriesID      int64  `msgpack:"series_id"`
	CorrelationID string `msgpack:"correlation_id"`
}

// ImportDispatcher is the capability BrokerBridge's consumer needs from
// ImportEngine. Declared here, not imported from internal/importer, so the
// broker package never depends on import business logic directly.
type ImportDispatcher interface {
	ImportForSeries(ctx context.Context, seriesID int64) error
}

// Consumer reads import-request messages from a topic and routes failures
// to a dead-letter topic after maxAttempts.
type Consumer struct {
	client      *kgo.Client
	dispatcher  ImportDispatcher
	producer    *Producer
	dlqTopic    string
	maxAttempts int
	log         zerolog.Logger
}

// NewConsumer builds a Consumer in consumer group group, subscribed to
// topic, forwarding poison messages to dlqProducer's topic after
// maxAttempts in-process import attempts have failed.
func NewConsumer(addrs []string, topic, group string, dispatcher ImportDispatcher, dlqProducer *Producer, maxAttempts int, log zerolog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(addrs...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{
		client:      client,
		dispatcher:  dispatcher,
		producer:    dlqProducer,
		dlqTopic:    dlqProducer.topic,
		maxAttempts: maxAttempts,
		log:         log.With().Str("component", "broker_consumer").Logger(),
	}, nil
}

// Run polls and processes records until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, e := range errs {
				c.log.Error().Err(e.Err).Str("topic", e.Topic).Msg("fetch error")
			}
		}

		fetches.EachRecord(func(record *kgo.Record) {
			c.process(ctx, record)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.log.Error().Err(err).Msg("commit offsets failed")
		}
	}
}

func (c *Consumer) process(ctx context.Context, record *kgo.Record) {
	var req ImportRequest
	if err := msgpack.Unmarshal(record.Value, &req); err != nil {
		c.log.Error().Err(err).Msg("unparseable import request, routing to dlq")
		c.sendToDLQ(ctx, record)
		return
	}

	logger := c.log.With().Str("correlation_id", req.CorrelationID).Int64("series_id", req.SeriesID).Logger()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.dispatcher.ImportForSeries(ctx, req.SeriesID); err != nil {
			lastErr = err
			logger.Warn().Err(err).Int("attempt", attempt).Msg("import attempt failed")
			continue
		}
		logger.Info().Msg("import request processed")
		return
	}

	logger.Error().Err(lastErr).Msg("import request exhausted retries, routing to dlq")
	c.sendToDLQ(ctx, record)
}

func (c *Consumer) sendToDLQ(ctx context.Context, record *kgo.Record) {
	if err := c.producer.Send(ctx, string(record.Key), record.Value); err != nil {
		c.log.Error().Err(err).Msg("failed to publish to dlq")
	}
}

// Close releases the underlying client.
func (c *Consumer) Close() {
	c.client.Close()
}
