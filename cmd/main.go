package main

import (
	"context"
	"os"

	"github.com/yungbote/scriptforge-backend/internal/db"
	"github.com/yungbote/scriptforge-backend/internal/handlers"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/observability"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/server"
	"github.com/yungbote/scriptforge-backend/internal/services"
	"github.com/yungbote/scriptforge-backend/internal/utils"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	log, err := logger.New(logMode)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "scriptforge-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			if err := shutdownOTel(context.Background()); err != nil {
				log.Warn("Tracer shutdown failed", "error", err)
			}
		}()
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Failed to connect to postgres", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	scriptRepo := repos.NewScriptRepo(pg.DB(), log)
	conversationRepo := repos.NewConversationRepo(pg.DB(), log)
	messageRepo := repos.NewMessageRepo(pg.DB(), log)

	bucket, err := services.NewBucketService(log)
	if err != nil {
		log.Fatal("Failed to initialize blob storage", "error", err)
	}
	aiClient, err := services.NewAIClient(log)
	if err != nil {
		log.Fatal("Failed to initialize AI client", "error", err)
	}

	scriptService := services.NewScriptService(log, scriptRepo, bucket, aiClient)
	conversationService := services.NewConversationService(log, conversationRepo, messageRepo)
	chatService := services.NewChatService(log, conversationService, messageRepo, aiClient)

	healthHandler := handlers.NewHealthHandler(log, pg.DB(), aiClient)
	trainHandler := handlers.NewTrainHandler(log, scriptService)
	scriptHandler := handlers.NewScriptHandler(log, scriptService)
	chatHandler := handlers.NewChatHandler(log, chatService, conversationService)
	conversationHandler := handlers.NewConversationHandler(log, conversationService)

	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		HealthHandler:       healthHandler,
		TrainHandler:        trainHandler,
		ScriptHandler:       scriptHandler,
		ChatHandler:         chatHandler,
		ConversationHandler: conversationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
