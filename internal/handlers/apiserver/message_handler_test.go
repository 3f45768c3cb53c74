package apiserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/internal/middleware"
	"trailbook/internal/models"
	"trailbook/internal/services"
)

// stubMessageService records GetMessages arguments and returns an empty page.
type stubMessageService struct {
	services.MessageService

	getMessagesCalls int
	lastLimit        int
}

func (s *stubMessageService) GetMessages(ctx context.Context, callerID, otherUserID uint, cursorID *uint, limit int, direction string) (*services.MessagePage, error) {
	s.getMessagesCalls++
	s.lastLimit = limit
	return &services.MessagePage{Messages: []*models.ChatMessage{}, Direction: "before"}, nil
}

func getMessagesRequest(target string) *http.Request {
	r := httptest.NewRequest("GET", target, nil)
	r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, uint(1)))
	return mux.SetURLVars(r, map[string]string{"otherUserId": "2"})
}

func TestGetMessagesHandlerRejectsExplicitZeroLimit(t *testing.T) {
	svc := &stubMessageService{}
	h := NewMessageHandler(svc)

	rec := httptest.NewRecorder()
	h.GetMessagesHandler(rec, getMessagesRequest("/messages/with/2?limit=0"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.getMessagesCalls)
}

func TestGetMessagesHandlerRejectsMalformedLimit(t *testing.T) {
	svc := &stubMessageService{}
	h := NewMessageHandler(svc)

	rec := httptest.NewRecorder()
	h.GetMessagesHandler(rec, getMessagesRequest("/messages/with/2?limit=fifty"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.getMessagesCalls)
}

func TestGetMessagesHandlerAbsentLimitUsesDefault(t *testing.T) {
	svc := &stubMessageService{}
	h := NewMessageHandler(svc)

	rec := httptest.NewRecorder()
	h.GetMessagesHandler(rec, getMessagesRequest("/messages/with/2"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.getMessagesCalls)
	// Zero tells the service to apply its own default.
	assert.Zero(t, svc.lastLimit)
}

func TestGetMessagesHandlerPassesExplicitLimit(t *testing.T) {
	svc := &stubMessageService{}
	h := NewMessageHandler(svc)

	rec := httptest.NewRecorder()
	h.GetMessagesHandler(rec, getMessagesRequest("/messages/with/2?limit=25"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, svc.lastLimit)
}
