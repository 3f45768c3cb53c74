package websocket

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"trailbook/internal/chattypes"
)

// Hub maintains the set of live clients and routes server events to them.
// All registry mutation happens on the single Run goroutine, so no locking
// is needed on the clients map. One session per user: a newer connection for
// the same user replaces the older one.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client
	outbound   chan outboundEvent

	logger *logrus.Logger
}

type outboundEvent struct {
	userID uint
	event  chattypes.ServerEvent
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outboundEvent, 256),
		logger:     logger,
	}
}

// SendToUser queues an event for delivery to the user's live session. Drops
// the event when the hub's queue is full rather than blocking the caller;
// durable state lives in the message log, not in this channel.
func (h *Hub) SendToUser(userID uint, event chattypes.ServerEvent) {
	select {
	case h.outbound <- outboundEvent{userID: userID, event: event}:
	default:
		h.logger.WithField("userId", userID).Warn("hub outbound queue full, dropping event")
	}
}

// Run owns the registry. It must run on exactly one goroutine.
func (h *Hub) Run() {
	h.logger.Info("websocket hub started")
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.userID]; ok {
				h.logger.WithField("userId", client.userID).Info("replacing existing session for user")
				close(existing.send)
			}
			h.clients[client.userID] = client
			h.logger.WithField("userId", client.userID).Info("client registered")

		case client := <-h.unregister:
			// Only evict the client if it is still the registered session.
			// A stale disconnect from a replaced connection must not take
			// down the newer one.
			if stored, ok := h.clients[client.userID]; ok && stored == client {
				delete(h.clients, client.userID)
				close(client.send)
				h.logger.WithField("userId", client.userID).Info("client unregistered")
			}

		case out := <-h.outbound:
			client, ok := h.clients[out.userID]
			if !ok {
				continue
			}
			payload, err := json.Marshal(out.event)
			if err != nil {
				h.logger.WithError(err).Error("failed to serialize server event")
				continue
			}
			select {
			case client.send <- payload:
			default:
				// Slow or dead client. Drop it so the hub never blocks.
				h.logger.WithField("userId", out.userID).Warn("client send buffer full, evicting client")
				close(client.send)
				delete(h.clients, out.userID)
			}
		}
	}
}
