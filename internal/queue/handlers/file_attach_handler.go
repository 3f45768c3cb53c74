// Package handlers contains the task handlers run by the queue consumers.
package handlers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/chattypes"
	"trailbook/internal/storage"
)

// FileAttachHandler finalizes file attachments: once the object is in the
// store, it records the durable URL on the originating chat message.
type FileAttachHandler struct {
	messageRepo storage.ChatMessageRepository
	objectStore chattypes.ObjectStore
	logger      *logrus.Logger
}

func NewFileAttachHandler(messageRepo storage.ChatMessageRepository, objectStore chattypes.ObjectStore, logger *logrus.Logger) *FileAttachHandler {
	return &FileAttachHandler{messageRepo: messageRepo, objectStore: objectStore, logger: logger}
}

// Handle processes one file-upload task. Idempotent: a message whose file is
// already marked uploaded is acked without changes, so redeliveries and
// manual DLQ replays are safe.
func (h *FileAttachHandler) Handle(ctx context.Context, payload []byte) error {
	var task chattypes.FileUploadTask
	if err := chattypes.DecodeTask(payload, &task); err != nil {
		return apperrors.Wrap(err, apperrors.KindInvalidArgument, "malformed file-upload task")
	}
	if task.MessageID == 0 || task.FileKey == "" {
		return apperrors.InvalidArgument("file-upload task is missing messageId or fileKey")
	}

	msg, err := h.messageRepo.GetByID(ctx, task.MessageID)
	if err != nil {
		// The message row may not be visible yet if the task raced its
		// transaction. Let the retry policy redeliver.
		return fmt.Errorf("loading message %d for file-upload task: %w", task.MessageID, err)
	}

	if msg.IsFileUploaded {
		h.logger.WithField("messageId", msg.ID).Debug("file already marked uploaded, skipping")
		return nil
	}

	fileURL := h.objectStore.ObjectURL(task.FileKey)
	if err := h.messageRepo.SetFileUploaded(ctx, msg.ID, fileURL); err != nil {
		return fmt.Errorf("marking file uploaded on message %d: %w", msg.ID, err)
	}

	h.logger.WithFields(logrus.Fields{
		"messageId": msg.ID,
		"fileKey":   task.FileKey,
	}).Info("file attachment finalized")
	return nil
}
