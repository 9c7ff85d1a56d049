package producers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// DonationEventProducer publishes donation events keyed by donation id. Writes are
// synchronous so the outbox relay only marks a row processed once Kafka acknowledged it.
type DonationEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewDonationEventProducer ensures the donation topic exists and opens a writer for it
func NewDonationEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DonationEventProducer, error) {
	if cfg.DonationTopic == "" {
		return nil, fmt.Errorf("kafka donation topic is not configured")
	}

	if err := ensureTopic(ctx, cfg, cfg.DonationTopic, logger); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers),
		Topic: cfg.DonationTopic,
		// Same key, same partition: events of one donation stay ordered
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &DonationEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.DonationTopic,
	}, nil
}

func (p *DonationEventProducer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: toKafkaHeaders(headers),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish donation event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published donation event", "topic", p.topic, "key", key)
	return nil
}

func (p *DonationEventProducer) Close() error {
	p.logger.Info("Closing donation event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return out
}
