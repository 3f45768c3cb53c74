package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trailbook/internal/apperrors"
	"trailbook/internal/chattypes"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

type messageServiceMocks struct {
	messages   *mockChatMessageRepo
	requests   *mockConnectionRequestRepo
	users      *mockUserRepo
	dispatcher *mockDispatcher
}

func newMessageService(t *testing.T) (MessageService, *messageServiceMocks) {
	t.Helper()
	m := &messageServiceMocks{
		messages:   new(mockChatMessageRepo),
		requests:   new(mockConnectionRequestRepo),
		users:      new(mockUserRepo),
		dispatcher: new(mockDispatcher),
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := NewMessageService(m.messages, m.requests, m.users, m.dispatcher, logger)
	return svc, m
}

func TestSendSelfMessage(t *testing.T) {
	svc, _ := newMessageService(t)
	_, err := svc.Send(context.Background(), userAlice, SendMessageInput{ReceiverID: userAlice, Content: "hi"})
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestSendRequiresConnection(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(false, nil)

	_, err := svc.Send(context.Background(), userAlice, SendMessageInput{ReceiverID: userBob, Content: "hi"})
	assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))
}

func TestSendPersistsAndDispatches(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)
	m.messages.On("Create", anyCtx, mock.MatchedBy(func(msg *models.ChatMessage) bool {
		msg.ID = 42
		return msg.SenderID == userAlice && msg.ReceiverID == userBob && msg.HasFile
	})).Return(nil)
	m.dispatcher.On("PublishFileUpload", anyCtx, chattypes.FileUploadTask{MessageID: 42, FileKey: "k1"}).Return(nil)
	m.dispatcher.On("PublishNotification", anyCtx, mock.MatchedBy(func(task chattypes.NotificationTask) bool {
		return task.MessageID == 42 && task.SenderID == userAlice && task.ReceiverID == userBob
	})).Return(nil)

	message, err := svc.Send(context.Background(), userAlice, SendMessageInput{
		ReceiverID: userBob,
		Content:    "look at this",
		Attachment: &AttachmentInput{FileKey: "k1", FileName: "photo.jpg", ContentType: "image/jpeg", FileSize: 1024},
	})
	require.NoError(t, err)
	assert.False(t, message.IsFileUploaded)
	m.dispatcher.AssertExpectations(t)
}

func TestSendSurvivesDispatchFailure(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)
	m.messages.On("Create", anyCtx, mock.Anything).Return(nil)
	m.dispatcher.On("PublishNotification", anyCtx, mock.Anything).Return(assert.AnError)

	// The message is already committed; a broker outage must not fail the send.
	message, err := svc.Send(context.Background(), userAlice, SendMessageInput{ReceiverID: userBob, Content: "hi"})
	require.NoError(t, err)
	assert.NotNil(t, message)
}

func TestGetMessagesLimitBounds(t *testing.T) {
	svc, _ := newMessageService(t)

	for _, limit := range []int{-1, 101} {
		_, err := svc.GetMessages(context.Background(), userAlice, userBob, nil, limit, "")
		assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err), "limit %d", limit)
	}

	_, err := svc.GetMessages(context.Background(), userAlice, userBob, nil, 50, "sideways")
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestGetMessagesRequiresConnection(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(false, nil)

	_, err := svc.GetMessages(context.Background(), userAlice, userBob, nil, 0, "")
	assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))
}

// pageFixture builds n messages from Bob to Alice, ids n..1, newest first,
// the order the repository returns for a before page.
func pageFixture(n int) []*models.ChatMessage {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	messages := make([]*models.ChatMessage, 0, n)
	for i := n; i >= 1; i-- {
		m := &models.ChatMessage{
			SenderID:   userBob,
			ReceiverID: userAlice,
			Content:    "m",
		}
		m.ID = uint(i)
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		messages = append(messages, m)
	}
	return messages
}

func TestGetMessagesBeforePage(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)
	// limit+1 rows back means there is more history.
	m.messages.On("ListPage", anyCtx, userAlice, userBob, (*models.ChatMessage)(nil), 50, storage.PageBefore).
		Return(pageFixture(51), nil)
	m.messages.On("MarkRead", anyCtx, mock.Anything, mock.Anything).Return(nil)

	page, err := svc.GetMessages(context.Background(), userAlice, userBob, nil, 0, "")
	require.NoError(t, err)

	assert.True(t, page.HasMore)
	require.Len(t, page.Messages, 50)
	// Presented chronologically: oldest of the page first.
	assert.Equal(t, uint(2), page.Messages[0].ID)
	assert.Equal(t, uint(51), page.Messages[49].ID)
	// The cursor for the next (older) page is the boundary-most id.
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, uint(2), *page.NextCursor)
}

func TestGetMessagesMarksPageRead(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)
	m.messages.On("ListPage", anyCtx, userAlice, userBob, (*models.ChatMessage)(nil), 50, storage.PageBefore).
		Return(pageFixture(3), nil)
	m.messages.On("MarkRead", anyCtx, mock.MatchedBy(func(ids []uint) bool {
		return len(ids) == 3
	}), mock.Anything).Return(nil)

	page, err := svc.GetMessages(context.Background(), userAlice, userBob, nil, 0, "")
	require.NoError(t, err)
	for _, msg := range page.Messages {
		assert.True(t, msg.IsRead)
		assert.NotNil(t, msg.ReadAt)
	}
	m.messages.AssertExpectations(t)
}

func TestGetMessagesAfterPage(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)

	cursor := &models.ChatMessage{SenderID: userAlice, ReceiverID: userBob}
	cursor.ID = 10
	m.messages.On("GetByID", anyCtx, uint(10)).Return(cursor, nil)

	// After pages come back oldest-first already.
	newer := pageFixture(2)
	newer[0], newer[1] = newer[1], newer[0]
	m.messages.On("ListPage", anyCtx, userAlice, userBob, cursor, 50, storage.PageAfter).Return(newer, nil)
	m.messages.On("MarkRead", anyCtx, mock.Anything, mock.Anything).Return(nil)

	cursorID := uint(10)
	page, err := svc.GetMessages(context.Background(), userAlice, userBob, &cursorID, 0, "after")
	require.NoError(t, err)

	assert.False(t, page.HasMore)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, uint(1), page.Messages[0].ID)
	assert.Equal(t, uint(2), page.Messages[1].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, uint(2), *page.NextCursor)
}

func TestGetMessagesRejectsForeignCursor(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)

	foreign := &models.ChatMessage{SenderID: 8, ReceiverID: 9}
	foreign.ID = 10
	m.messages.On("GetByID", anyCtx, uint(10)).Return(foreign, nil)

	cursorID := uint(10)
	_, err := svc.GetMessages(context.Background(), userAlice, userBob, &cursorID, 0, "")
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestGetMessagesEmptyPage(t *testing.T) {
	svc, m := newMessageService(t)
	m.requests.On("AreConnected", anyCtx, userAlice, userBob).Return(true, nil)
	m.messages.On("ListPage", anyCtx, userAlice, userBob, (*models.ChatMessage)(nil), 50, storage.PageBefore).
		Return([]*models.ChatMessage{}, nil)

	page, err := svc.GetMessages(context.Background(), userAlice, userBob, nil, 0, "")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestGetConversations(t *testing.T) {
	svc, m := newMessageService(t)

	head := &models.ChatMessage{SenderID: userBob, ReceiverID: userAlice, Content: "latest"}
	head.ID = 5
	m.messages.On("ConversationHeads", anyCtx, userAlice).Return([]*models.ChatMessage{head}, nil)
	m.messages.On("CountUnreadBySender", anyCtx, userAlice).Return(map[uint]int64{userBob: 3}, nil)
	m.users.On("GetMultipleBasicInfoByIDs", anyCtx, []uint{userBob}).
		Return([]*models.UserBasicInfo{{ID: userBob, Username: "bob"}}, nil)

	conversations, err := svc.GetConversations(context.Background(), userAlice)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, userBob, conversations[0].UserID)
	assert.Equal(t, int64(3), conversations[0].UnreadCount)
	assert.Equal(t, "latest", conversations[0].LastMessage.Content)
	assert.Equal(t, "bob", conversations[0].User.Username)
}

func TestGetUnreadCount(t *testing.T) {
	svc, m := newMessageService(t)
	m.messages.On("CountUnread", anyCtx, userAlice).Return(int64(7), nil)

	count, err := svc.GetUnreadCount(context.Background(), userAlice)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
