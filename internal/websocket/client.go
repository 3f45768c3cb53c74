package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trailbook/internal/chattypes"
	"trailbook/internal/config"
)

// EventHandler processes one decoded client event. Errors are reported back
// to the same session as an error event, never to other users.
type EventHandler func(ctx context.Context, client *Client, event chattypes.ClientEvent) error

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID  uint
	handler EventHandler
	logger  *logrus.Logger
}

// UserID returns the authenticated user behind this session.
func (c *Client) UserID() uint {
	return c.userID
}

func (c *Client) readPump(wsCfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(int64(wsCfg.MaxMessageSizeBytes))
	c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(time.Duration(wsCfg.PongWaitSeconds) * time.Second))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithField("userId", c.userID).WithError(err).Warn("websocket closed unexpectedly")
			}
			break
		}
		if messageType != websocket.TextMessage {
			c.logger.WithField("userId", c.userID).Debugf("ignoring non-text message type %d", messageType)
			continue
		}

		var event chattypes.ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			c.SendEvent(chattypes.ServerEvent{
				Event: chattypes.EventError,
				Data:  chattypes.ErrorData{Message: "malformed event"},
			})
			continue
		}

		if err := c.handler(context.Background(), c, event); err != nil {
			c.logger.WithFields(logrus.Fields{
				"userId": c.userID,
				"event":  event.Event,
			}).WithError(err).Warn("client event failed")
		}
	}
}

func (c *Client) writePump(wsCfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(wsCfg.PingPeriodSeconds) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(time.Duration(wsCfg.WriteWaitSeconds) * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues an event for this session only, bypassing the hub
// registry. Used for acks and errors addressed to the current connection.
func (c *Client) SendEvent(event chattypes.ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.WithError(err).Error("failed to serialize server event")
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.WithField("userId", c.userID).Warn("client send buffer full, dropping event")
	}
}

// ServeConnection upgrades nothing: it wires an already-upgraded and
// authenticated connection into the hub and starts its pumps.
func ServeConnection(hub *Hub, conn *websocket.Conn, userID uint, handler EventHandler, wsCfg config.WebSocketConfig, logger *logrus.Logger) *Client {
	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  userID,
		handler: handler,
		logger:  logger,
	}
	hub.register <- client

	go client.writePump(wsCfg)
	go client.readPump(wsCfg)
	return client
}

// NewUpgrader builds the upgrader used by the websocket handler.
func NewUpgrader(wsCfg config.WebSocketConfig, subprotocols ...string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    subprotocols,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}
