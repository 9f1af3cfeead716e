package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/hub"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/middleware"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/jwt"
)

// stubService records calls and returns canned results.
type stubService struct {
	room       *domain.Room
	roomErr    error
	message    *domain.Message
	messageErr error
	history    []domain.Message
	historyErr error

	submitSender string
}

func (s *stubService) HandleConnect(ctx context.Context, c *hub.Client, userID string) error { return nil }
func (s *stubService) HandleDisconnect(ctx context.Context, c *hub.Client) error             { return nil }
func (s *stubService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error {
	return nil
}
func (s *stubService) Submit(ctx context.Context, roomID, senderID, messageType, content, fileName string) (*domain.Message, error) {
	s.submitSender = senderID
	return s.message, s.messageErr
}
func (s *stubService) MarkSeen(ctx context.Context, messageIDs []string, userID, roomID string) error {
	return nil
}
func (s *stubService) StartTyping(ctx context.Context, c *hub.Client, roomID, userID string) error {
	return nil
}
func (s *stubService) StopTyping(ctx context.Context, c *hub.Client, roomID, userID string) error {
	return nil
}
func (s *stubService) GetOrCreateRoom(ctx context.Context, userA, userB string) (*domain.Room, error) {
	return s.room, s.roomErr
}
func (s *stubService) ListMessages(ctx context.Context, roomID, forUser string) ([]domain.Message, error) {
	return s.history, s.historyErr
}
func (s *stubService) DeleteForUser(ctx context.Context, messageID, userID, roomID string) error {
	return nil
}

func setupRouter(t *testing.T, svc *stubService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := jwt.NewManager("test-secret", 15*time.Minute, "chatkaro")
	token, err := manager.GenerateAccessToken("u1", "alice")
	require.NoError(t, err)

	h := NewHTTPHandler(svc, middleware.NewAuthMiddleware(manager))
	router := gin.New()
	h.RegisterRoutes(router)
	return router, token
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesRequireAuth(t *testing.T) {
	router, _ := setupRouter(t, &stubService{})

	w := doRequest(router, http.MethodGet, "/api/messages?roomId=r1", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/messages?roomId=r1", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateChatroom(t *testing.T) {
	svc := &stubService{room: &domain.Room{ID: "r1", Participants: [2]string{"u1", "u2"}}}
	router, token := setupRouter(t, svc)

	w := doRequest(router, http.MethodPost, "/api/chatroom", token, gin.H{"userId": "u2"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    domain.Room `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "r1", resp.Data.ID)

	w = doRequest(router, http.MethodPost, "/api/chatroom", token, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateChatroomSelf(t *testing.T) {
	svc := &stubService{roomErr: domain.ErrSameParticipant}
	router, token := setupRouter(t, svc)

	w := doRequest(router, http.MethodPost, "/api/chatroom", token, gin.H{"userId": "u1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageUsesAuthenticatedSender(t *testing.T) {
	svc := &stubService{message: &domain.Message{ID: "m1", ChatRoom: "r1", Sender: "u1"}}
	router, token := setupRouter(t, svc)

	w := doRequest(router, http.MethodPost, "/api/messages", token, gin.H{
		"chatRoom": "r1",
		"content":  "hi",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "u1", svc.submitSender)
}

func TestSendMessageErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrRoomNotFound, http.StatusNotFound},
		{domain.ErrInvalidMessage, http.StatusBadRequest},
		{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		svc := &stubService{messageErr: tt.err}
		router, token := setupRouter(t, svc)

		w := doRequest(router, http.MethodPost, "/api/messages", token, gin.H{
			"chatRoom": "r1",
			"content":  "hi",
		})
		require.Equal(t, tt.code, w.Code, "error %v", tt.err)
	}
}

func TestGetMessages(t *testing.T) {
	svc := &stubService{history: []domain.Message{{ID: "m1"}, {ID: "m2"}}}
	router, token := setupRouter(t, svc)

	w := doRequest(router, http.MethodGet, "/api/messages?roomId=r1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool             `json:"success"`
		Data    []domain.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)

	w = doRequest(router, http.MethodGet, "/api/messages", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
