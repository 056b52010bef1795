package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/services"
)

type ScriptHandler struct {
	log           *logger.Logger
	scriptService services.ScriptService
}

func NewScriptHandler(log *logger.Logger, scriptService services.ScriptService) *ScriptHandler {
	return &ScriptHandler{
		log:           log.With("handler", "ScriptHandler"),
		scriptService: scriptService,
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// GET /api/scripts
func (h *ScriptHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	filter := repos.ScriptListFilter{
		Status: c.Query("status"),
		Genre:  c.Query("genre"),
		Page:   page,
		Limit:  limit,
	}
	scripts, total, err := h.scriptService.List(c.Request.Context(), filter)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"scripts":    scripts,
		"pagination": NewPagination(page, limit, total),
	})
}

// GET /api/scripts/search
func (h *ScriptHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("search query is required"))
		return
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	scripts, total, err := h.scriptService.Search(c.Request.Context(), q, page, limit)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"scripts":    scripts,
		"pagination": NewPagination(page, limit, total),
	})
}

// GET /api/scripts/stats
func (h *ScriptHandler) Stats(c *gin.Context) {
	stats, err := h.scriptService.Stats(c.Request.Context())
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, stats)
}

// GET /api/scripts/:id
func (h *ScriptHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	script, err := h.scriptService.Get(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"script": script})
}

type updateScriptRequest struct {
	Title  *string `json:"title"`
	Genre  *string `json:"genre"`
	Year   *int    `json:"year"`
	Author *string `json:"author"`
}

// PUT /api/scripts/:id
func (h *ScriptHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	var req updateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid request body: %w", err))
		return
	}
	script, err := h.scriptService.UpdateMetadata(c.Request.Context(), id, services.ScriptMetadataUpdate{
		Title:  req.Title,
		Genre:  req.Genre,
		Year:   req.Year,
		Author: req.Author,
	})
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message": "Script updated successfully",
		"script":  script,
	})
}

// DELETE /api/scripts/:id
func (h *ScriptHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	if err := h.scriptService.Delete(c.Request.Context(), id); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":   "Script deleted successfully",
		"script_id": id,
	})
}

// GET /api/scripts/:id/download
func (h *ScriptHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeValidationFailed, fmt.Errorf("invalid script id"))
		return
	}
	script, rc, err := h.scriptService.Download(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	defer func() { _ = rc.Close() }()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", script.OriginalName))
	contentType := script.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.log.Error("script download stream failed", "script_id", id, "error", err)
	}
}
