package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const topicLookupAttempts = 5

// ensureTopic creates topicName when the brokers do not report any partitions for it
func ensureTopic(ctx context.Context, cfg *config.KafkaConfig, topicName string, log *slog.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	var partitions []kafka.Partition
	for attempt := 1; attempt <= topicLookupAttempts; attempt++ {
		partitions, err = conn.ReadPartitions(topicName)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying", "topic", topicName, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	if len(partitions) > 0 {
		log.Info("Kafka topic already exists", "topic", topicName, "partitions", len(partitions))
		return nil
	}

	topicConfig := topicConfigFor(topicName, cfg.NumPartitions, cfg.ReplicationFactor)
	if err := conn.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	log.Info("Created Kafka topic", "topic", topicName, "partitions", topicConfig.NumPartitions)
	return nil
}

// topicConfigFor fills in single-node defaults
func topicConfigFor(topicName string, numPartitions, replicationFactor int) kafka.TopicConfig {
	if numPartitions <= 0 {
		numPartitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}
	return kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}
}
