package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"trailbook/internal/config"
)

// MessageHandler processes a consumed Kafka message. A nil return commits the
// offset; a non-nil return leaves the message uncommitted for redelivery.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// Consumer subscribes to topics and feeds messages to a handler one at a
// time. Offsets are committed only after the handler succeeds.
type Consumer interface {
	Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error
	Close()
}

type confluentConsumer struct {
	consumer *kafka.Consumer
	cfg      config.QueueConfig
	logger   *logrus.Logger
	groupID  string
}

func NewConsumer(cfg config.QueueConfig, logger *logrus.Logger) Consumer {
	return &confluentConsumer{cfg: cfg, logger: logger}
}

// Consume blocks until the context is canceled or a fatal broker error
// occurs. Messages are processed sequentially so a failing task never loses
// its place to later ones.
func (c *confluentConsumer) Consume(ctx context.Context, topics []string, groupID string, handler MessageHandler) error {
	if len(topics) == 0 {
		return fmt.Errorf("queue consumer: no topics specified")
	}
	c.groupID = groupID

	configMap := &kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(c.cfg.Brokers, ","),
		"group.id":           c.groupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": "false",
		"security.protocol":  c.cfg.Protocol,
	}
	if c.cfg.ClientID != "" {
		_ = configMap.SetKey("client.id", c.cfg.ClientID)
	}

	consumer, err := kafka.NewConsumer(configMap)
	if err != nil {
		return fmt.Errorf("creating Kafka consumer for group %s: %w", groupID, err)
	}
	c.consumer = consumer

	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		_ = c.consumer.Close()
		return fmt.Errorf("subscribing to topics %v for group %s: %w", topics, groupID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"groupId": groupID,
		"topics":  topics,
	}).Info("queue consumer started")

	run := true
	for run {
		select {
		case <-ctx.Done():
			c.logger.Infof("context canceled for consumer group %s, shutting down", groupID)
			run = false
		default:
			ev := c.consumer.Poll(1000)
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				if err := handler(ctx, e); err != nil {
					c.logger.WithFields(logrus.Fields{
						"groupId": groupID,
						"topic":   *e.TopicPartition.Topic,
						"offset":  e.TopicPartition.Offset,
					}).WithError(err).Error("message handler failed, offset not committed")
				} else if _, err := c.consumer.CommitMessage(e); err != nil {
					c.logger.WithFields(logrus.Fields{
						"groupId": groupID,
						"topic":   *e.TopicPartition.Topic,
						"offset":  e.TopicPartition.Offset,
					}).WithError(err).Error("failed to commit offset")
				}
			case kafka.Error:
				c.logger.WithField("groupId", groupID).WithError(e).Error("Kafka consumer error")
				if e.IsFatal() {
					run = false
					return e
				}
			case kafka.AssignedPartitions:
				c.logger.Debugf("partitions assigned for group %s: %v", groupID, e.Partitions)
				_ = c.consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				c.logger.Debugf("partitions revoked for group %s: %v", groupID, e.Partitions)
				_ = c.consumer.Unassign()
			}
		}
	}
	return nil
}

func (c *confluentConsumer) Close() {
	if c.consumer == nil {
		return
	}
	if err := c.consumer.Close(); err != nil {
		c.logger.WithError(err).Errorf("error closing consumer for group %s", c.groupID)
	}
	c.consumer = nil
}
