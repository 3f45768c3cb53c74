package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/chattypes"
	"trailbook/internal/models"
	"trailbook/internal/queue"
	"trailbook/internal/storage"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// AttachmentInput describes a file already placed in the object store whose
// completion will be confirmed asynchronously by the file consumer.
type AttachmentInput struct {
	FileKey     string
	FileName    string
	ContentType string
	FileSize    int64
}

// SendMessageInput is the payload for a single message send.
type SendMessageInput struct {
	ReceiverID uint
	Content    string
	Attachment *AttachmentInput
}

// MessagePage is one page of a conversation plus the cursor for the next.
type MessagePage struct {
	Messages   []*models.ChatMessage `json:"messages"`
	NextCursor *uint                 `json:"nextCursor"`
	HasMore    bool                  `json:"hasMore"`
	Direction  string                `json:"direction"`
}

// MessageService is the message log: synchronous persistence gated on an
// accepted connection, cursor pagination that doubles as the read-receipt
// mechanism, and best-effort dispatch of the async pipeline.
type MessageService interface {
	Send(ctx context.Context, senderID uint, input SendMessageInput) (*models.ChatMessage, error)
	GetMessages(ctx context.Context, callerID, otherUserID uint, cursorID *uint, limit int, direction string) (*MessagePage, error)
	GetUnreadCount(ctx context.Context, userID uint) (int64, error)
	GetConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
}

type messageService struct {
	messageRepo storage.ChatMessageRepository
	requestRepo storage.ConnectionRequestRepository
	userRepo    storage.UserRepository
	dispatcher  queue.Dispatcher
	logger      *logrus.Logger
}

func NewMessageService(
	messageRepo storage.ChatMessageRepository,
	requestRepo storage.ConnectionRequestRepository,
	userRepo storage.UserRepository,
	dispatcher queue.Dispatcher,
	logger *logrus.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Send persists the message synchronously, then dispatches the async side
// effects. The message is already committed when dispatch runs, so a publish
// failure is logged and never surfaced to the sender.
func (s *messageService) Send(ctx context.Context, senderID uint, input SendMessageInput) (*models.ChatMessage, error) {
	if senderID == 0 || input.ReceiverID == 0 {
		return nil, apperrors.InvalidArgument("user ids must be set")
	}
	if senderID == input.ReceiverID {
		return nil, apperrors.InvalidArgument("cannot send a message to yourself")
	}
	if input.Content == "" && input.Attachment == nil {
		return nil, apperrors.InvalidArgument("message must have content or an attachment")
	}

	connected, err := s.requestRepo.AreConnected(ctx, senderID, input.ReceiverID)
	if err != nil {
		return nil, apperrors.Internal(err, "checking connection")
	}
	if !connected {
		return nil, apperrors.Precondition("you can only message users you are connected with")
	}

	message := &models.ChatMessage{
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Content:    input.Content,
	}
	if input.Attachment != nil {
		message.HasFile = true
		message.FileKey = input.Attachment.FileKey
		message.FileName = input.Attachment.FileName
		message.FileType = input.Attachment.ContentType
		message.FileSize = input.Attachment.FileSize
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, apperrors.Internal(err, "persisting message")
	}

	s.dispatch(ctx, message)
	return message, nil
}

// dispatch hands the async tasks to the broker. Best effort only: the send
// is already acknowledged, so failures are logged for the operator and the
// consumers' retry machinery is never a reason to fail the caller.
func (s *messageService) dispatch(ctx context.Context, message *models.ChatMessage) {
	if message.HasFile {
		task := chattypes.FileUploadTask{MessageID: message.ID, FileKey: message.FileKey}
		if err := s.dispatcher.PublishFileUpload(ctx, task); err != nil {
			s.logger.WithError(err).WithField("messageId", message.ID).Error("failed to dispatch file-upload task")
		}
	}

	notify := chattypes.NotificationTask{
		MessageID:  message.ID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Preview:    truncate(message.Content, 80),
		FileType:   message.FileType,
	}
	if err := s.dispatcher.PublishNotification(ctx, notify); err != nil {
		s.logger.WithError(err).WithField("messageId", message.ID).Error("failed to dispatch notification task")
	}
}

// GetMessages pages through the conversation with otherUserID. Pages are
// always returned in chronological order; paging before a cursor walks into
// history, after a cursor catches up toward the present. Reading a page marks
// the caller's unread messages in it as read.
func (s *messageService) GetMessages(ctx context.Context, callerID, otherUserID uint, cursorID *uint, limit int, direction string) (*MessagePage, error) {
	if callerID == 0 || otherUserID == 0 {
		return nil, apperrors.InvalidArgument("user ids must be set")
	}

	var pageDir storage.PageDirection
	switch direction {
	case "", string(storage.PageBefore):
		pageDir = storage.PageBefore
	case string(storage.PageAfter):
		pageDir = storage.PageAfter
	default:
		return nil, apperrors.InvalidArgument("direction must be \"before\" or \"after\"")
	}

	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit < 1 || limit > maxPageLimit {
		return nil, apperrors.InvalidArgument("limit must be between 1 and 100")
	}

	connected, err := s.requestRepo.AreConnected(ctx, callerID, otherUserID)
	if err != nil {
		return nil, apperrors.Internal(err, "checking connection")
	}
	if !connected {
		return nil, apperrors.Precondition("you can only view messages with users you are connected with")
	}

	var cursor *models.ChatMessage
	if cursorID != nil {
		cursor, err = s.messageRepo.GetByID(ctx, *cursorID)
		if err != nil {
			return nil, apperrors.InvalidArgument("cursor message not found")
		}
		if !betweenPair(cursor, callerID, otherUserID) {
			return nil, apperrors.InvalidArgument("cursor does not belong to this conversation")
		}
	}

	messages, err := s.messageRepo.ListPage(ctx, callerID, otherUserID, cursor, limit, pageDir)
	if err != nil {
		return nil, apperrors.Internal(err, "loading messages")
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	if pageDir == storage.PageBefore {
		// Fetched newest-first, presented oldest-first.
		reverseMessages(messages)
	}

	s.markPageRead(ctx, callerID, messages)

	page := &MessagePage{
		Messages:  messages,
		HasMore:   hasMore,
		Direction: string(pageDir),
	}
	if len(messages) > 0 {
		var next uint
		if pageDir == storage.PageBefore {
			next = messages[0].ID
		} else {
			next = messages[len(messages)-1].ID
		}
		page.NextCursor = &next
	}
	return page, nil
}

// markPageRead applies the read-receipt side effect for the returned page. A
// failure here degrades read receipts but never fails the page.
func (s *messageService) markPageRead(ctx context.Context, callerID uint, messages []*models.ChatMessage) {
	now := time.Now()
	var unreadIDs []uint
	for _, m := range messages {
		if m.ReceiverID == callerID && !m.IsRead {
			unreadIDs = append(unreadIDs, m.ID)
		}
	}
	if len(unreadIDs) == 0 {
		return
	}
	if err := s.messageRepo.MarkRead(ctx, unreadIDs, now); err != nil {
		s.logger.WithError(err).Warn("failed to mark page as read")
		return
	}
	for _, m := range messages {
		if m.ReceiverID == callerID && !m.IsRead {
			m.IsRead = true
			readAt := now
			m.ReadAt = &readAt
		}
	}
}

func (s *messageService) GetUnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := s.messageRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal(err, "counting unread messages")
	}
	return count, nil
}

// GetConversations lists the user's conversations newest-first: the latest
// message per counterpart, the unread count from them, and their profile.
// Missing profiles leave the User field nil rather than failing the listing.
func (s *messageService) GetConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	heads, err := s.messageRepo.ConversationHeads(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "loading conversations")
	}
	unread, err := s.messageRepo.CountUnreadBySender(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "counting unread messages")
	}

	counterpartIDs := make([]uint, 0, len(heads))
	for _, head := range heads {
		counterpartIDs = append(counterpartIDs, counterpartOf(head, userID))
	}

	profiles := map[uint]*models.UserBasicInfo{}
	if len(counterpartIDs) > 0 {
		infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, counterpartIDs)
		if err != nil {
			s.logger.WithError(err).Warn("batch profile lookup failed, returning conversations without profiles")
		} else {
			for _, info := range infos {
				profiles[info.ID] = info
			}
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(heads))
	for i, head := range heads {
		counterpartID := counterpartIDs[i]
		summaries = append(summaries, models.ConversationSummary{
			UserID:      counterpartID,
			User:        profiles[counterpartID],
			LastMessage: head,
			UnreadCount: unread[counterpartID],
		})
	}
	return summaries, nil
}

func counterpartOf(m *models.ChatMessage, userID uint) uint {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

func betweenPair(m *models.ChatMessage, userID1, userID2 uint) bool {
	return (m.SenderID == userID1 && m.ReceiverID == userID2) ||
		(m.SenderID == userID2 && m.ReceiverID == userID1)
}

func reverseMessages(messages []*models.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
