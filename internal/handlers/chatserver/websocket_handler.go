package chatserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/auth"
	"trailbook/internal/chattypes"
	"trailbook/internal/config"
	"trailbook/internal/services"
	ws "trailbook/internal/websocket"
)

// bearerSubprotocol is the websocket subprotocol under which browser clients
// smuggle their token, since the browser API cannot set headers.
const bearerSubprotocol = "bearer"

// WebSocketHandler authenticates websocket handshakes and dispatches the
// realtime chat events.
type WebSocketHandler struct {
	hub            *ws.Hub
	messageService services.MessageService
	blacklist      auth.TokenBlacklist
	cfg            config.Config
	logger         *logrus.Logger
	upgrader       websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, messageService services.MessageService, blacklist auth.TokenBlacklist, cfg config.Config, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		messageService: messageService,
		blacklist:      blacklist,
		cfg:            cfg,
		logger:         logger,
		upgrader:       ws.NewUpgrader(cfg.WebSocket, bearerSubprotocol),
	}
}

// extractToken pulls the bearer credential from the handshake. Three
// transports are accepted, in priority order: the bearer subprotocol, the
// Authorization header, then the token query parameter.
func extractToken(r *http.Request) string {
	protocols := websocket.Subprotocols(r)
	for i, p := range protocols {
		if p == bearerSubprotocol && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}

	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	return r.URL.Query().Get("token")
}

// ServeWS upgrades the connection and authenticates it. An invalid or
// missing credential still gets an upgraded socket just long enough to
// receive an error event before the connection is closed; no other handler
// ever sees an unauthenticated session.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	claims, authErr := h.authenticate(r.Context(), token)
	if authErr != nil {
		h.rejectConnection(conn, authErr)
		return
	}

	client := ws.ServeConnection(h.hub, conn, claims.UserID, h.handleEvent, h.cfg.WebSocket, h.logger)
	client.SendEvent(chattypes.ServerEvent{
		Event: chattypes.EventConnected,
		Data:  chattypes.ConnectedData{UserID: claims.UserID},
	})
}

func (h *WebSocketHandler) authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("missing credential")
	}
	claims, err := auth.ValidateToken(ctx, token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		return nil, fmt.Errorf("invalid credential: %w", err)
	}
	return claims, nil
}

// rejectConnection emits an error event on the raw socket and closes it.
func (h *WebSocketHandler) rejectConnection(conn *websocket.Conn, authErr error) {
	h.logger.WithError(authErr).Warn("websocket authentication failed")
	payload, err := json.Marshal(chattypes.ServerEvent{
		Event: chattypes.EventError,
		Data:  chattypes.ErrorData{Message: "authentication failed"},
	})
	if err == nil {
		deadline := time.Now().Add(time.Duration(h.cfg.WebSocket.WriteWaitSeconds) * time.Second)
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
	_ = conn.Close()
}

// handleEvent dispatches one decoded client event. Failures are reported to
// the sender's own session as an error event.
func (h *WebSocketHandler) handleEvent(ctx context.Context, client *ws.Client, event chattypes.ClientEvent) error {
	switch event.Event {
	case chattypes.EventSendMessage:
		return h.handleSendMessage(ctx, client, event.Data)
	case chattypes.EventTyping:
		return h.handleTyping(client, event.Data)
	case chattypes.EventMarkRead:
		return h.handleMarkRead(client, event.Data)
	default:
		client.SendEvent(chattypes.ServerEvent{
			Event: chattypes.EventError,
			Data:  chattypes.ErrorData{Message: fmt.Sprintf("unknown event %q", event.Event)},
		})
		return nil
	}
}

// handleSendMessage persists the message, fans it out to the receiver, acks
// the sender, and leaves the async pipeline to the service. The fan-out
// happens after the synchronous persist, so a delivered new_message always
// refers to a committed row.
func (h *WebSocketHandler) handleSendMessage(ctx context.Context, client *ws.Client, data json.RawMessage) error {
	var payload chattypes.SendMessageData
	if err := json.Unmarshal(data, &payload); err != nil {
		client.SendEvent(chattypes.ServerEvent{
			Event: chattypes.EventError,
			Data:  chattypes.ErrorData{Message: "malformed send_message payload"},
		})
		return nil
	}

	input := services.SendMessageInput{
		ReceiverID: payload.ReceiverID,
		Content:    payload.Content,
	}
	if payload.FileKey != "" {
		input.Attachment = &services.AttachmentInput{
			FileKey:     payload.FileKey,
			FileName:    payload.FileName,
			ContentType: payload.ContentType,
			FileSize:    payload.FileSize,
		}
	}

	message, err := h.messageService.Send(ctx, client.UserID(), input)
	if err != nil {
		client.SendEvent(chattypes.ServerEvent{
			Event: chattypes.EventError,
			Data:  chattypes.ErrorData{Message: apperrors.UserMessage(err)},
		})
		return err
	}

	h.hub.SendToUser(message.ReceiverID, chattypes.ServerEvent{
		Event: chattypes.EventNewMessage,
		Data:  message,
	})
	client.SendEvent(chattypes.ServerEvent{
		Event: chattypes.EventMessageSent,
		Data:  message,
	})
	return nil
}

// handleTyping is a pure relay, nothing is persisted.
func (h *WebSocketHandler) handleTyping(client *ws.Client, data json.RawMessage) error {
	var payload chattypes.TypingData
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == 0 {
		return nil
	}
	h.hub.SendToUser(payload.ReceiverID, chattypes.ServerEvent{
		Event: chattypes.EventUserTyping,
		Data:  chattypes.UserTypingData{UserID: client.UserID(), IsTyping: payload.IsTyping},
	})
	return nil
}

// handleMarkRead is a pure relay like typing: it notifies the counterpart
// that their messages were read but persists nothing. Durable read state is
// written only by the pagination read path.
func (h *WebSocketHandler) handleMarkRead(client *ws.Client, data json.RawMessage) error {
	var payload chattypes.MarkReadData
	if err := json.Unmarshal(data, &payload); err != nil || payload.SenderID == 0 {
		return nil
	}
	h.hub.SendToUser(payload.SenderID, chattypes.ServerEvent{
		Event: chattypes.EventMessagesRead,
		Data:  chattypes.MessagesReadData{ReaderID: client.UserID()},
	})
	return nil
}
