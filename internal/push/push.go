// Package push abstracts delivery of push notifications to user devices.
package push

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notification is a single push message addressed to one device token.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers notifications to a push provider.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// logSender writes notifications to the log instead of a real provider.
// Used in development and as the default when no provider is configured.
type logSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(_ context.Context, n Notification) error {
	s.logger.WithFields(logrus.Fields{
		"token": n.Token,
		"title": n.Title,
		"body":  n.Body,
	}).Info("push notification dispatched")
	return nil
}
