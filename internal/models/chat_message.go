package models

import "time"

// ChatMessage is one entry in the append-only message log between two
// connected users. The log is totally ordered per unordered pair by
// (created_at, id). A row is immutable after creation except for the two
// disjoint field groups mutated by independent call paths: the file-attach
// consumer sets IsFileUploaded/FileURL once, and read-pagination sets
// IsRead/ReadAt. No other mutation happens, so the two writers can never
// conflict.
type ChatMessage struct {
	BaseModel
	SenderID   uint   `gorm:"not null;index:idx_chat_messages_pair" json:"senderId"`
	ReceiverID uint   `gorm:"not null;index:idx_chat_messages_pair;index:idx_chat_messages_unread" json:"receiverId"`
	Content    string `gorm:"type:text" json:"content"`

	HasFile        bool   `gorm:"not null;default:false" json:"hasFile"`
	FileKey        string `gorm:"type:varchar(255)" json:"fileKey,omitempty"`
	FileURL        string `gorm:"type:varchar(255)" json:"fileUrl,omitempty"`
	FileName       string `gorm:"type:varchar(255)" json:"fileName,omitempty"`
	FileType       string `gorm:"type:varchar(100)" json:"fileType,omitempty"`
	FileSize       int64  `json:"fileSize,omitempty"`
	IsFileUploaded bool   `gorm:"not null;default:false" json:"isFileUploaded"`

	IsRead bool       `gorm:"not null;default:false;index:idx_chat_messages_unread" json:"isRead"`
	ReadAt *time.Time `json:"readAt,omitempty"`

	Sender   User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
}

// TableName specifies the table name for the ChatMessage model.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ConversationSummary is one row of the conversation listing: the counterpart,
// the most recent message exchanged with them, and how many of their messages
// are still unread.
type ConversationSummary struct {
	UserID      uint           `json:"userId"`
	User        *UserBasicInfo `json:"user"`
	LastMessage *ChatMessage   `json:"lastMessage"`
	UnreadCount int64          `json:"unreadCount"`
}
