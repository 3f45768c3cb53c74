package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
)

// retryCountHeader tracks how many times a task has been retried. It rides on
// the message itself so retries survive consumer restarts.
const retryCountHeader = "x-retry-count"

// DefaultMaxRetries is the number of redeliveries before a task is parked on
// its dead-letter topic.
const DefaultMaxRetries = 3

// TaskHandler processes one decoded task payload.
type TaskHandler func(ctx context.Context, payload []byte) error

// RetryPolicy wraps a TaskHandler with retry-via-republish semantics:
// transient failures are republished to the source topic with an incremented
// retry count and an exponential delay, permanently failing or exhausted
// tasks go to the dead-letter topic with their payload unmodified.
type RetryPolicy struct {
	Producer   Producer
	Logger     *logrus.Logger
	MaxRetries int

	// Sleep is swappable for tests. Defaults to time.Sleep.
	Sleep func(d time.Duration)
}

func NewRetryPolicy(producer Producer, logger *logrus.Logger) *RetryPolicy {
	return &RetryPolicy{
		Producer:   producer,
		Logger:     logger,
		MaxRetries: DefaultMaxRetries,
		Sleep:      time.Sleep,
	}
}

// Wrap returns a MessageHandler that applies the retry policy around the
// given task handler. The returned handler only reports an error when a
// republish itself fails, so the source offset stays uncommitted and the
// message is redelivered rather than lost.
func (rp *RetryPolicy) Wrap(sourceTopic, dlqTopic string, handler TaskHandler) MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		err := handler(ctx, msg.Value)
		if err == nil {
			return nil
		}

		log := rp.Logger.WithFields(logrus.Fields{
			"topic":  sourceTopic,
			"offset": msg.TopicPartition.Offset,
		})

		// Malformed payloads can never succeed, retrying them only burns
		// delay budget. Park them immediately.
		if apperrors.KindOf(err) == apperrors.KindInvalidArgument {
			log.WithError(err).Warn("task payload rejected, sending to dead-letter topic")
			return rp.toDeadLetter(ctx, dlqTopic, msg)
		}

		count := RetryCount(msg.Headers)
		if count >= rp.MaxRetries {
			log.WithError(err).WithField("retryCount", count).Error("task retries exhausted, sending to dead-letter topic")
			return rp.toDeadLetter(ctx, dlqTopic, msg)
		}

		delay := time.Duration(1<<count) * time.Second
		log.WithError(err).WithFields(logrus.Fields{
			"retryCount": count,
			"delay":      delay,
		}).Warn("task failed, republishing for retry")
		rp.Sleep(delay)

		headers := withRetryCount(msg.Headers, count+1)
		if pubErr := rp.Producer.Publish(ctx, sourceTopic, msg.Key, msg.Value, headers); pubErr != nil {
			log.WithError(pubErr).Error("failed to republish task for retry")
			return pubErr
		}
		return nil
	}
}

// toDeadLetter forwards the message to the dead-letter topic. The payload and
// headers are passed through untouched so the original task can be inspected
// or replayed as-is.
func (rp *RetryPolicy) toDeadLetter(ctx context.Context, dlqTopic string, msg *kafka.Message) error {
	if err := rp.Producer.Publish(ctx, dlqTopic, msg.Key, msg.Value, msg.Headers); err != nil {
		rp.Logger.WithError(err).Errorf("failed to publish to dead-letter topic %s", dlqTopic)
		return err
	}
	return nil
}

// RetryCount reads the retry counter from message headers, zero when absent
// or unparsable.
func RetryCount(headers []kafka.Header) int {
	for _, h := range headers {
		if h.Key == retryCountHeader {
			n, err := strconv.Atoi(string(h.Value))
			if err != nil || n < 0 {
				return 0
			}
			return n
		}
	}
	return 0
}

func withRetryCount(headers []kafka.Header, count int) []kafka.Header {
	out := make([]kafka.Header, 0, len(headers)+1)
	for _, h := range headers {
		if h.Key != retryCountHeader {
			out = append(out, h)
		}
	}
	return append(out, kafka.Header{Key: retryCountHeader, Value: []byte(strconv.Itoa(count))})
}
