package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

// historyWindow is how many of the most recent messages accompany each
// generation request as conversation context.
const historyWindow = 10

const fallbackReply = "I apologize, but I encountered an error. Please try again."

type ChatResult struct {
	Conversation *types.Conversation
	Response     string
}

type ChatService interface {
	// Send appends the user message, asks the generation service for a
	// reply and appends it. When the generation call fails a fallback
	// reply is recorded and the service error is returned alongside the
	// conversation so the caller can surface both.
	Send(ctx context.Context, convID *uuid.UUID, message, outputType string) (*ChatResult, error)
}

type chatService struct {
	log                 *logger.Logger
	conversationService ConversationService
	messageRepo         repos.MessageRepo
	aiClient            AIClient
}

func NewChatService(
	baseLog *logger.Logger,
	conversationService ConversationService,
	messageRepo repos.MessageRepo,
	aiClient AIClient,
) ChatService {
	serviceLog := baseLog.With("service", "ChatService")
	return &chatService{
		log:                 serviceLog,
		conversationService: conversationService,
		messageRepo:         messageRepo,
		aiClient:            aiClient,
	}
}

func (cs *chatService) Send(ctx context.Context, convID *uuid.UUID, message, outputType string) (*ChatResult, error) {
	if message == "" {
		return nil, apierr.Validation(fmt.Errorf("message is required"))
	}

	var conv *types.Conversation
	var err error
	if convID != nil {
		conv, err = cs.conversationService.Get(ctx, *convID)
		if err != nil {
			return nil, err
		}
	} else {
		conv, err = cs.conversationService.Create(ctx, titleFromMessage(message), outputType)
		if err != nil {
			return nil, err
		}
	}

	if _, err := cs.conversationService.AddMessage(ctx, conv.ID, types.MessageRoleUser, message); err != nil {
		return nil, err
	}

	history, err := cs.messageRepo.GetLastByConversationID(ctx, nil, conv.ID, historyWindow)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("load conversation history: %w", err))
	}
	genHistory := make([]GenerateMessage, len(history))
	for i, m := range history {
		genHistory[i] = GenerateMessage{Role: m.Role, Content: m.Content}
	}

	reply, genErr := cs.aiClient.Generate(ctx, message, conv.OutputType, genHistory)
	if genErr != nil {
		cs.log.Error("generation failed", "conversation_id", conv.ID, "error", genErr)
		if _, err := cs.conversationService.AddMessage(ctx, conv.ID, types.MessageRoleAI, fallbackReply); err != nil {
			cs.log.Error("failed to record fallback reply", "conversation_id", conv.ID, "error", err)
		}
		result := &ChatResult{Conversation: conv, Response: fallbackReply}
		return result, apierr.Service(fmt.Errorf("generation service unavailable: %w", genErr))
	}

	if _, err := cs.conversationService.AddMessage(ctx, conv.ID, types.MessageRoleAI, reply); err != nil {
		return nil, err
	}

	return &ChatResult{Conversation: conv, Response: reply}, nil
}

func titleFromMessage(message string) string {
	const max = 50
	runes := []rune(message)
	if len(runes) <= max {
		return message
	}
	return string(runes[:max]) + "..."
}
