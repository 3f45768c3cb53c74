package chattypes

import "encoding/json"

// EventName identifies a realtime event on the chat channel.
type EventName string

// Client → server events.
const (
	EventSendMessage EventName = "send_message"
	EventTyping      EventName = "typing"
	EventMarkRead    EventName = "mark_read"
)

// Server → client events.
const (
	EventConnected    EventName = "connected"
	EventNewMessage   EventName = "new_message"
	EventMessageSent  EventName = "message_sent"
	EventUserTyping   EventName = "user_typing"
	EventMessagesRead EventName = "messages_read"
	EventError        EventName = "error"
)

// ClientEvent is the envelope for everything a client sends over the
// websocket. Data is decoded per event type by the gateway handler.
type ClientEvent struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the envelope for everything the server emits.
type ServerEvent struct {
	Event EventName   `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// SendMessageData is the payload of a send_message event. The file fields
// describe an attachment whose bytes were already placed in the object store
// through the upload flow; the message is persisted before the attachment is
// confirmed.
type SendMessageData struct {
	ReceiverID  uint   `json:"receiverId"`
	Content     string `json:"content"`
	FileKey     string `json:"fileKey,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
}

// TypingData is the payload of a typing event; relayed without persistence.
type TypingData struct {
	ReceiverID uint `json:"receiverId"`
	IsTyping   bool `json:"isTyping"`
}

// MarkReadData is the payload of a mark_read event; relayed without
// persistence (durable read state is written by the pagination read path).
type MarkReadData struct {
	SenderID uint `json:"senderId"`
}

// UserTypingData is the payload of a user_typing relay.
type UserTypingData struct {
	UserID   uint `json:"userId"`
	IsTyping bool `json:"isTyping"`
}

// MessagesReadData is the payload of a messages_read relay.
type MessagesReadData struct {
	ReaderID uint `json:"readerId"`
}

// ConnectedData acknowledges a successful handshake.
type ConnectedData struct {
	UserID uint `json:"userId"`
}

// ErrorData carries a user-visible error over the realtime channel.
type ErrorData struct {
	Message string `json:"message"`
}
