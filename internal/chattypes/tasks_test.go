package chattypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTask(t *testing.T) {
	var task FileUploadTask
	err := DecodeTask([]byte(`{"messageId":42,"fileKey":"chat/42/photo.jpg"}`), &task)
	require.NoError(t, err)
	assert.Equal(t, uint(42), task.MessageID)
	assert.Equal(t, "chat/42/photo.jpg", task.FileKey)
}

func TestDecodeTaskRejectsUnknownFields(t *testing.T) {
	var task NotificationTask
	err := DecodeTask([]byte(`{"messageId":1,"senderId":2,"receiverId":3,"retryCount":1}`), &task)
	assert.Error(t, err)
}

func TestDecodeTaskRejectsGarbage(t *testing.T) {
	var task FileUploadTask
	assert.Error(t, DecodeTask([]byte("definitely not json"), &task))
}
