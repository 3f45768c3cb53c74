package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"trailbook/internal/models"
)

// PageDirection selects which side of the cursor a page is read from.
type PageDirection string

const (
	PageBefore PageDirection = "before"
	PageAfter  PageDirection = "after"
)

// ChatMessageRepository defines the interface for the message log.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	GetByID(ctx context.Context, id uint) (*models.ChatMessage, error)
	// ListPage fetches up to limit+1 messages of the unordered pair relative
	// to the cursor message (nil cursor means "latest" for before). Results
	// for before come newest-first, for after oldest-first; ordering key is
	// the compound (created_at, id).
	ListPage(ctx context.Context, userID1, userID2 uint, cursor *models.ChatMessage, limit int, direction PageDirection) ([]*models.ChatMessage, error)
	// MarkRead sets is_read/read_at on the given messages.
	MarkRead(ctx context.Context, messageIDs []uint, readAt time.Time) error
	// SetFileUploaded records attachment completion; it touches only the
	// file fields, never the read fields.
	SetFileUploaded(ctx context.Context, messageID uint, fileURL string) error
	CountUnread(ctx context.Context, receiverID uint) (int64, error)
	// ConversationHeads returns the most recent message per counterpart for
	// the user, newest conversation first.
	ConversationHeads(ctx context.Context, userID uint) ([]*models.ChatMessage, error)
	// CountUnreadBySender returns sender id -> unread count for the receiver.
	CountUnreadBySender(ctx context.Context, receiverID uint) (map[uint]int64, error)
}

type gormChatMessageRepository struct {
	db *gorm.DB
}

// NewGormChatMessageRepository creates a new GORM-based ChatMessageRepository.
func NewGormChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &gormChatMessageRepository{db: db}
}

func (r *gormChatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *gormChatMessageRepository) GetByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := r.db.WithContext(ctx).First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *gormChatMessageRepository) pairQuery(ctx context.Context, userID1, userID2 uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID1, userID2, userID2, userID1)
}

func (r *gormChatMessageRepository) ListPage(ctx context.Context, userID1, userID2 uint, cursor *models.ChatMessage, limit int, direction PageDirection) ([]*models.ChatMessage, error) {
	query := r.pairQuery(ctx, userID1, userID2)

	// Compound row comparison avoids skipping or duplicating messages that
	// share a created_at across a page boundary.
	switch direction {
	case PageAfter:
		if cursor != nil {
			query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
		}
		query = query.Order("created_at ASC, id ASC")
	default: // PageBefore
		if cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
		query = query.Order("created_at DESC, id DESC")
	}

	var messages []*models.ChatMessage
	err := query.Limit(limit + 1).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *gormChatMessageRepository) MarkRead(ctx context.Context, messageIDs []uint, readAt time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("id IN ? AND is_read = ?", messageIDs, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error
}

func (r *gormChatMessageRepository) SetFileUploaded(ctx context.Context, messageID uint, fileURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{"is_file_uploaded": true, "file_url": fileURL}).Error
}

func (r *gormChatMessageRepository) CountUnread(ctx context.Context, receiverID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, err
}

// ConversationHeads uses DISTINCT ON to pick the newest message per
// counterpart in one round trip.
func (r *gormChatMessageRepository) ConversationHeads(ctx context.Context, userID uint) ([]*models.ChatMessage, error) {
	var messages []*models.ChatMessage
	err := r.db.WithContext(ctx).Raw(`
		SELECT * FROM (
			SELECT DISTINCT ON (counterpart) m.* FROM (
				SELECT *, CASE WHEN sender_id = @uid THEN receiver_id ELSE sender_id END AS counterpart
				FROM chat_messages
				WHERE deleted_at IS NULL AND (sender_id = @uid OR receiver_id = @uid)
			) m
			ORDER BY counterpart, created_at DESC, id DESC
		) heads
		ORDER BY created_at DESC, id DESC`,
		map[string]interface{}{"uid": userID}).
		Scan(&messages).Error
	return messages, err
}

func (r *gormChatMessageRepository) CountUnreadBySender(ctx context.Context, receiverID uint) (map[uint]int64, error) {
	type row struct {
		SenderID uint
		Count    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Select("sender_id", "COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Group("sender_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, g := range rows {
		counts[g.SenderID] = g.Count
	}
	return counts, nil
}
