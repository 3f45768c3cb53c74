package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"trailbook/internal/chattypes"
	"trailbook/internal/config"
)

// Dispatcher publishes the two fixed background task types. Dispatch is
// fire-and-forget relative to the triggering request: callers log failures
// but never roll back already-committed writes because of one.
type Dispatcher interface {
	PublishFileUpload(ctx context.Context, task chattypes.FileUploadTask) error
	PublishNotification(ctx context.Context, task chattypes.NotificationTask) error
}

type kafkaDispatcher struct {
	producer Producer
	cfg      config.QueueConfig
}

func NewDispatcher(producer Producer, cfg config.QueueConfig) Dispatcher {
	return &kafkaDispatcher{producer: producer, cfg: cfg}
}

func (d *kafkaDispatcher) PublishFileUpload(ctx context.Context, task chattypes.FileUploadTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("serializing file-upload task: %w", err)
	}
	key := []byte(strconv.FormatUint(uint64(task.MessageID), 10))
	return d.producer.Publish(ctx, d.cfg.FileUploadTopic, key, payload, nil)
}

func (d *kafkaDispatcher) PublishNotification(ctx context.Context, task chattypes.NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("serializing notification task: %w", err)
	}
	key := []byte(strconv.FormatUint(uint64(task.ReceiverID), 10))
	return d.producer.Publish(ctx, d.cfg.NotifyTopic, key, payload, nil)
}
