package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trailbook/internal/apperrors"
	"trailbook/internal/services"
)

// MessageHandler exposes the message log over HTTP.
type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

type sendMessageRequest struct {
	ReceiverID uint   `json:"receiverId"`
	Content    string `json:"content,omitempty"`

	FileKey     string `json:"fileKey,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
}

// SendHandler handles POST /messages/send.
func (h *MessageHandler) SendHandler(w http.ResponseWriter, r *http.Request) {
	senderID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, apperrors.InvalidArgument("invalid request body"))
		return
	}
	defer r.Body.Close()

	input := services.SendMessageInput{
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	}
	if req.FileKey != "" {
		input.Attachment = &services.AttachmentInput{
			FileKey:     req.FileKey,
			FileName:    req.FileName,
			ContentType: req.ContentType,
			FileSize:    req.FileSize,
		}
	}

	message, err := h.messageService.Send(r.Context(), senderID, input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "message sent", message)
}

// GetMessagesHandler handles GET /messages/with/{otherUserId}. Query
// parameters: cursor (message id), limit (1-100, default 50), direction
// (before or after, default before).
func (h *MessageHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	otherID, err := pathUserID(r, "otherUserId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	query := r.URL.Query()
	var cursorID *uint
	if cursorStr := query.Get("cursor"); cursorStr != "" {
		id, err := strconv.ParseUint(cursorStr, 10, 32)
		if err != nil || id == 0 {
			respondError(w, r, apperrors.InvalidArgument("invalid cursor"))
			return
		}
		c := uint(id)
		cursorID = &c
	}

	// An absent limit means the service default; an explicit limit, zero
	// included, must land inside the allowed range.
	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l == 0 {
			respondError(w, r, apperrors.InvalidArgument("limit must be between 1 and 100"))
			return
		}
		limit = l
	}

	page, err := h.messageService.GetMessages(r.Context(), userID, otherID, cursorID, limit, query.Get("direction"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", page)
}

// GetConversationsHandler handles GET /messages/conversations.
func (h *MessageHandler) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	conversations, err := h.messageService.GetConversations(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", conversations)
}

// GetUnreadCountHandler handles GET /messages/unread-count.
func (h *MessageHandler) GetUnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	count, err := h.messageService.GetUnreadCount(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", map[string]int64{"unreadCount": count})
}
