package chattypes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Task payloads placed on the durable queues. They are ephemeral: identity is
// (topic, payload) and the retry count travels as message metadata, never in
// the body, so a payload republished for retry or dead-lettered is
// byte-identical to the original.

// FileUploadTask asks the file consumer to confirm an already-uploaded object
// and record its durable URL on the message.
type FileUploadTask struct {
	MessageID uint   `json:"messageId"`
	FileKey   string `json:"fileKey"`
}

// NotificationTask asks the notify consumer to push a new-message notification
// to the receiver.
type NotificationTask struct {
	MessageID  uint   `json:"messageId"`
	SenderID   uint   `json:"senderId"`
	ReceiverID uint   `json:"receiverId"`
	Preview    string `json:"preview,omitempty"`
	FileType   string `json:"fileType,omitempty"`
}

// DecodeTask strictly deserializes a queue payload into dst. Unknown fields
// are rejected so a malformed or foreign payload is detected at the consumer
// boundary instead of being half-processed.
func DecodeTask(payload []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decoding task payload: %w", err)
	}
	return nil
}
