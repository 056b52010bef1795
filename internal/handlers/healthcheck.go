package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/services"
)

type HealthHandler struct {
	log      *logger.Logger
	db       *gorm.DB
	aiClient services.AIClient
}

func NewHealthHandler(log *logger.Logger, db *gorm.DB, aiClient services.AIClient) *HealthHandler {
	return &HealthHandler{
		log:      log.With("handler", "HealthHandler"),
		db:       db,
		aiClient: aiClient,
	}
}

// GET /healthcheck
// The generation service is a soft dependency: its state is reported but
// never fails the check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "ok"
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			dbStatus = "error"
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			dbStatus = "error"
		}
	} else {
		dbStatus = "not_configured"
	}

	aiStatus := "ok"
	if h.aiClient != nil {
		if err := h.aiClient.Health(c.Request.Context()); err != nil {
			aiStatus = "unreachable"
		}
	} else {
		aiStatus = "not_configured"
	}

	RespondOK(c, gin.H{
		"status":             "healthy",
		"timestamp":          time.Now().UTC(),
		"database":           dbStatus,
		"generation_service": aiStatus,
	})
}
