package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"trailbook/internal/config"
)

// Producer publishes task payloads to Kafka topics.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, payload []byte, headers []kafka.Header) error
	Close()
}

type confluentProducer struct {
	producer *kafka.Producer
	logger   *logrus.Logger
}

// NewProducer creates a Kafka producer from the queue configuration.
func NewProducer(cfg config.QueueConfig, logger *logrus.Logger) (Producer, error) {
	configMap := &kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"security.protocol": cfg.Protocol,
	}
	if cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", cfg.ClientID)
	}

	p, err := kafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("creating Kafka producer: %w", err)
	}
	return &confluentProducer{producer: p, logger: logger}, nil
}

// Publish sends a single message and waits for its delivery report, so a nil
// return means the broker has acknowledged the message.
func (p *confluentProducer) Publish(ctx context.Context, topic string, key []byte, payload []byte, headers []kafka.Header) error {
	// Never closed: librdkafka may deliver the report after the ctx branch
	// below gives up waiting. The buffered channel absorbs it and is
	// collected with the rest.
	deliveryChan := make(chan kafka.Event, 1)

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          payload,
		Headers:        headers,
		Timestamp:      time.Now(),
	}

	if err := p.producer.Produce(msg, deliveryChan); err != nil {
		return fmt.Errorf("enqueueing message for topic %s: %w", topic, err)
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type on delivery channel: %T", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed for topic %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for delivery report for topic %s: %w", topic, ctx.Err())
	}
}

// Close flushes outstanding messages and releases the producer.
func (p *confluentProducer) Close() {
	if p.producer == nil {
		return
	}
	remaining := p.producer.Flush(15 * 1000)
	if remaining > 0 {
		p.logger.Warnf("%d messages still outstanding after flush, closing producer anyway", remaining)
	}
	p.producer.Close()
	p.producer = nil
}
