package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/scriptforge-backend/internal/handlers"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/middleware"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler       *handlers.HealthHandler
	TrainHandler        *handlers.TrainHandler
	ScriptHandler       *handlers.ScriptHandler
	ChatHandler         *handlers.ChatHandler
	ConversationHandler *handlers.ConversationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(otelgin.Middleware("scriptforge-backend"))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	api := router.Group("/api")
	{
		// Training pipeline
		api.POST("/train", cfg.TrainHandler.Upload)
		api.GET("/train/status/:id", cfg.TrainHandler.Status)
		api.POST("/train/:id/complete", cfg.TrainHandler.Complete)
		api.POST("/train/:id/resubmit", cfg.TrainHandler.Resubmit)

		// Scripts
		api.GET("/scripts", cfg.ScriptHandler.List)
		api.GET("/scripts/stats", cfg.ScriptHandler.Stats)
		api.GET("/scripts/search", cfg.ScriptHandler.Search)
		api.GET("/scripts/:id", cfg.ScriptHandler.Get)
		api.PUT("/scripts/:id", cfg.ScriptHandler.Update)
		api.DELETE("/scripts/:id", cfg.ScriptHandler.Delete)
		api.GET("/scripts/:id/download", cfg.ScriptHandler.Download)

		// Chat
		api.POST("/chat", cfg.ChatHandler.Send)
		api.GET("/chat/:id", cfg.ChatHandler.GetConversation)

		// Conversations
		api.GET("/conversations", cfg.ConversationHandler.List)
		api.GET("/conversations/search", cfg.ConversationHandler.Search)
		api.GET("/conversations/:id", cfg.ConversationHandler.Get)
		api.PUT("/conversations/:id", cfg.ConversationHandler.Update)
		api.DELETE("/conversations/:id", cfg.ConversationHandler.Delete)
		api.POST("/conversations/:id/messages", cfg.ConversationHandler.AddMessage)
	}

	return router
}
