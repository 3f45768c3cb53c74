package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/chattypes"
	"trailbook/internal/push"
	"trailbook/internal/storage"
)

// NotificationHandler pushes new-message notifications to the receiver's
// registered device.
type NotificationHandler struct {
	userRepo storage.UserRepository
	sender   push.Sender
	logger   *logrus.Logger
}

func NewNotificationHandler(userRepo storage.UserRepository, sender push.Sender, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{userRepo: userRepo, sender: sender, logger: logger}
}

// Handle processes one notification task. A receiver without a push token is
// not an error, the task is simply acked.
func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var task chattypes.NotificationTask
	if err := chattypes.DecodeTask(payload, &task); err != nil {
		return apperrors.Wrap(err, apperrors.KindInvalidArgument, "malformed notification task")
	}
	if task.ReceiverID == 0 || task.SenderID == 0 {
		return apperrors.InvalidArgument("notification task is missing senderId or receiverId")
	}

	receiver, err := h.userRepo.GetByID(ctx, task.ReceiverID)
	if err != nil {
		return fmt.Errorf("loading receiver %d for notification: %w", task.ReceiverID, err)
	}
	if receiver.PushToken == "" {
		h.logger.WithField("receiverId", receiver.ID).Debug("receiver has no push token, dropping notification")
		return nil
	}

	sender, err := h.userRepo.GetBasicInfoByID(ctx, task.SenderID)
	if err != nil {
		return fmt.Errorf("loading sender %d for notification: %w", task.SenderID, err)
	}
	title := sender.Nickname
	if title == "" {
		title = sender.Username
	}

	notification := push.Notification{
		Token: receiver.PushToken,
		Title: title,
		Body:  notificationBody(task),
		Data: map[string]string{
			"messageId": strconv.FormatUint(uint64(task.MessageID), 10),
			"senderId":  strconv.FormatUint(uint64(task.SenderID), 10),
		},
	}
	if err := h.sender.Send(ctx, notification); err != nil {
		return fmt.Errorf("sending push notification for message %d: %w", task.MessageID, err)
	}
	return nil
}

// notificationBody renders a short body line for the notification. File
// messages are summarized by their media category rather than the raw name.
func notificationBody(task chattypes.NotificationTask) string {
	if task.FileType != "" {
		switch {
		case strings.HasPrefix(task.FileType, "image/"):
			return "sent you a photo"
		case task.FileType == "application/pdf":
			return "sent you a document"
		case strings.HasPrefix(task.FileType, "text/"):
			return "sent you a text file"
		default:
			return "sent you a file"
		}
	}
	if task.Preview != "" {
		return task.Preview
	}
	return "sent you a message"
}
