package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/domain"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/middleware"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/internal/service"
	"github.com/sasineelakandan/chatkaro-Entegation-Task/pkg/response"
)

// HTTPHandler is the request/response surface: room resolution, the REST
// submit path and the history fetch clients use to resynchronize.
type HTTPHandler struct {
	service service.ChatService
	auth    *middleware.AuthMiddleware
}

func NewHTTPHandler(svc service.ChatService, auth *middleware.AuthMiddleware) *HTTPHandler {
	return &HTTPHandler{
		service: svc,
		auth:    auth,
	}
}

type createChatroomRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type sendMessageRequest struct {
	ChatRoom    string `json:"chatRoom" binding:"required"`
	MessageType string `json:"messageType"`
	Content     string `json:"content"`
	FileName    string `json:"fileName"`
}

func (h *HTTPHandler) CreateChatroom(c *gin.Context) {
	var req createChatroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "userId is required")
		return
	}

	room, err := h.service.GetOrCreateRoom(c.Request.Context(), middleware.GetUserID(c), req.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, room)
}

func (h *HTTPHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "chatRoom is required")
		return
	}

	msg, err := h.service.Submit(
		c.Request.Context(),
		req.ChatRoom,
		middleware.GetUserID(c),
		req.MessageType,
		req.Content,
		req.FileName,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, msg)
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	roomID := c.Query("roomId")
	if roomID == "" {
		response.BadRequest(c, "roomId is required")
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), roomID, middleware.GetUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, messages)
}

func (h *HTTPHandler) DeleteMessage(c *gin.Context) {
	messageID := c.Param("id")
	roomID := c.Query("roomId")
	if messageID == "" || roomID == "" {
		response.BadRequest(c, "message id and roomId are required")
		return
	}

	if err := h.service.DeleteForUser(c.Request.Context(), messageID, middleware.GetUserID(c), roomID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": messageID})
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		response.NotFound(c, "room not found")
	case errors.Is(err, domain.ErrInvalidMessage):
		response.BadRequest(c, "message content is required")
	case errors.Is(err, domain.ErrSameParticipant):
		response.BadRequest(c, "cannot create a chat room with the same user")
	case errors.Is(err, domain.ErrStoreUnavailable):
		response.ServiceUnavailable(c, "store unavailable, retry")
	default:
		response.InternalError(c, "unexpected error")
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api", h.auth.RequireAuth())
	{
		api.POST("/chatroom", h.CreateChatroom)
		api.POST("/messages", h.SendMessage)
		api.GET("/messages", h.GetMessages)
		api.DELETE("/messages/:id", h.DeleteMessage)
	}
}
