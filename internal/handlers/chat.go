package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/services"
)

type ChatHandler struct {
	log                 *logger.Logger
	chatService         services.ChatService
	conversationService services.ConversationService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService, conversationService services.ConversationService) *ChatHandler {
	return &ChatHandler{
		log:                 log.With("handler", "ChatHandler"),
		chatService:         chatService,
		conversationService: conversationService,
	}
}

type chatRequest struct {
	Message        string  `json:"message"`
	OutputType     string  `json:"output_type"`
	ConversationID *string `json:"conversation_id"`
}

// POST /api/chat
func (h *ChatHandler) Send(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Message == "" {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("message is required"))
		return
	}

	var convID *uuid.UUID
	if req.ConversationID != nil && *req.ConversationID != "" {
		id, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid conversation id"))
			return
		}
		convID = &id
	}

	result, err := h.chatService.Send(c.Request.Context(), convID, req.Message, req.OutputType)
	if err != nil {
		var ae *apierr.Error
		if result != nil && errors.As(err, &ae) && ae.Code == apierr.CodeServiceFailed {
			c.JSON(ae.Status, gin.H{
				"error":           ae.Error(),
				"code":            ae.Code,
				"conversation_id": result.Conversation.ID,
				"response":        result.Response,
			})
			return
		}
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"conversation_id": result.Conversation.ID,
		"response":        result.Response,
	})
}

// GET /api/chat/:id
func (h *ChatHandler) GetConversation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid conversation id"))
		return
	}
	conv, err := h.conversationService.Get(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversation": conv,
		"messages":     conv.Messages,
	})
}
