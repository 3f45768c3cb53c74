package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/internal/chattypes"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	hub := NewHub(logger)
	go hub.Run()
	return hub
}

func newTestClient(userID uint, buffer int) *Client {
	return &Client{userID: userID, send: make(chan []byte, buffer)}
}

func receivePayload(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "send channel closed")
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func expectClosed(t *testing.T, client *Client) {
	t.Helper()
	select {
	case _, ok := <-client.send:
		assert.False(t, ok, "expected send channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestHubDeliversToRegisteredUser(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(1, 8)
	hub.register <- client

	hub.SendToUser(1, chattypes.ServerEvent{
		Event: chattypes.EventConnected,
		Data:  chattypes.ConnectedData{UserID: 1},
	})

	var event chattypes.ServerEvent
	require.NoError(t, json.Unmarshal(receivePayload(t, client), &event))
	assert.Equal(t, chattypes.EventConnected, event.Event)
}

func TestHubDropsEventForUnknownUser(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(1, 8)
	hub.register <- client

	hub.SendToUser(99, chattypes.ServerEvent{Event: chattypes.EventNewMessage})
	hub.SendToUser(1, chattypes.ServerEvent{Event: chattypes.EventConnected})

	// Only the event addressed to user 1 arrives.
	var event chattypes.ServerEvent
	require.NoError(t, json.Unmarshal(receivePayload(t, client), &event))
	assert.Equal(t, chattypes.EventConnected, event.Event)
}

func TestHubNewSessionReplacesOld(t *testing.T) {
	hub := newTestHub(t)
	oldSession := newTestClient(1, 8)
	newSession := newTestClient(1, 8)

	hub.register <- oldSession
	hub.register <- newSession

	// The replaced session's channel is closed and events go to the new one.
	expectClosed(t, oldSession)
	hub.SendToUser(1, chattypes.ServerEvent{Event: chattypes.EventConnected})
	receivePayload(t, newSession)
}

func TestHubStaleUnregisterKeepsNewSession(t *testing.T) {
	hub := newTestHub(t)
	oldSession := newTestClient(1, 8)
	newSession := newTestClient(1, 8)

	hub.register <- oldSession
	hub.register <- newSession
	expectClosed(t, oldSession)

	// The replaced connection's teardown fires after the replacement.
	hub.unregister <- oldSession

	hub.SendToUser(1, chattypes.ServerEvent{Event: chattypes.EventConnected})
	receivePayload(t, newSession)
}

func TestHubUnregisterRemovesClient(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(1, 8)
	hub.register <- client
	hub.unregister <- client

	expectClosed(t, client)
}

func TestHubEvictsSlowClient(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(1, 1)
	hub.register <- client

	// The second event finds the buffer full and evicts the client.
	hub.SendToUser(1, chattypes.ServerEvent{Event: chattypes.EventConnected})
	hub.SendToUser(1, chattypes.ServerEvent{Event: chattypes.EventNewMessage})

	receivePayload(t, client)
	expectClosed(t, client)
}
