package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/services"
)

type ConversationHandler struct {
	log                 *logger.Logger
	conversationService services.ConversationService
}

func NewConversationHandler(log *logger.Logger, conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		log:                 log.With("handler", "ConversationHandler"),
		conversationService: conversationService,
	}
}

// GET /api/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	filter := repos.ConversationListFilter{
		OutputType: c.Query("output_type"),
		Page:       page,
		Limit:      limit,
	}
	convs, total, err := h.conversationService.List(c.Request.Context(), filter)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversations": convs,
		"pagination":    NewPagination(page, limit, total),
	})
}

// GET /api/conversations/search
func (h *ConversationHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("search query is required"))
		return
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	convs, total, err := h.conversationService.Search(c.Request.Context(), q, page, limit)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"conversations": convs,
		"pagination":    NewPagination(page, limit, total),
	})
}

// GET /api/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
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

type updateConversationRequest struct {
	Title      *string `json:"title"`
	OutputType *string `json:"output_type"`
}

// PUT /api/conversations/:id
func (h *ConversationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid conversation id"))
		return
	}
	var req updateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid request body: %w", err))
		return
	}
	conv, err := h.conversationService.Update(c.Request.Context(), id, services.ConversationUpdate{
		Title:      req.Title,
		OutputType: req.OutputType,
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":      "Conversation updated successfully",
		"conversation": conv,
	})
}

// DELETE /api/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid conversation id"))
		return
	}
	if err := h.conversationService.Delete(c.Request.Context(), id); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":         "Conversation deleted successfully",
		"conversation_id": id,
	})
}

type addMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// POST /api/conversations/:id/messages
func (h *ConversationHandler) AddMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid conversation id"))
		return
	}
	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid request body: %w", err))
		return
	}
	msg, err := h.conversationService.AddMessage(c.Request.Context(), id, req.Role, req.Content)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message": "Message added successfully",
		"result":  msg,
	})
}
