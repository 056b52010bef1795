package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

type ConversationUpdate struct {
	Title      *string
	OutputType *string
}

type ConversationService interface {
	Create(ctx context.Context, title, outputType string) (*types.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error)
	List(ctx context.Context, filter repos.ConversationListFilter) ([]*types.Conversation, int64, error)
	Search(ctx context.Context, query string, page, limit int) ([]*types.Conversation, int64, error)
	Update(ctx context.Context, id uuid.UUID, upd ConversationUpdate) (*types.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMessage(ctx context.Context, convID uuid.UUID, role, content string) (*types.Message, error)
}

type conversationService struct {
	log              *logger.Logger
	conversationRepo repos.ConversationRepo
	messageRepo      repos.MessageRepo
}

func NewConversationService(
	baseLog *logger.Logger,
	conversationRepo repos.ConversationRepo,
	messageRepo repos.MessageRepo,
) ConversationService {
	serviceLog := baseLog.With("service", "ConversationService")
	return &conversationService{
		log:              serviceLog,
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
	}
}

func (cs *conversationService) Create(ctx context.Context, title, outputType string) (*types.Conversation, error) {
	if outputType == "" {
		outputType = types.OutputTypeScript
	}
	if outputType != types.OutputTypeScript && outputType != types.OutputTypeOutline {
		return nil, apierr.Validation(fmt.Errorf("output type must be %q or %q", types.OutputTypeScript, types.OutputTypeOutline))
	}
	now := time.Now()
	conv := &types.Conversation{
		ID:         uuid.New(),
		Title:      title,
		OutputType: outputType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := cs.conversationRepo.Create(ctx, nil, conv); err != nil {
		return nil, apierr.Storage(fmt.Errorf("create conversation: %w", err))
	}
	return conv, nil
}

func (cs *conversationService) Get(ctx context.Context, id uuid.UUID) (*types.Conversation, error) {
	conv, err := cs.conversationRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("conversation")
		}
		return nil, apierr.Storage(fmt.Errorf("load conversation: %w", err))
	}
	cs.fillMessageCount(ctx, conv)
	return conv, nil
}

func (cs *conversationService) List(ctx context.Context, filter repos.ConversationListFilter) ([]*types.Conversation, int64, error) {
	convs, total, err := cs.conversationRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, 0, apierr.Storage(fmt.Errorf("list conversations: %w", err))
	}
	for _, conv := range convs {
		cs.fillMessageCount(ctx, conv)
	}
	return convs, total, nil
}

// fillMessageCount is a read-side projection; a counting failure is logged
// and leaves the count at zero rather than failing the read.
func (cs *conversationService) fillMessageCount(ctx context.Context, conv *types.Conversation) {
	count, err := cs.messageRepo.CountByConversationID(ctx, nil, conv.ID)
	if err != nil {
		cs.log.Warn("failed to count conversation messages", "conversation_id", conv.ID, "error", err)
		return
	}
	conv.MessageCount = count
}

func (cs *conversationService) Search(ctx context.Context, query string, page, limit int) ([]*types.Conversation, int64, error) {
	convs, total, err := cs.conversationRepo.Search(ctx, nil, query, page, limit)
	if err != nil {
		return nil, 0, apierr.Storage(fmt.Errorf("search conversations: %w", err))
	}
	return convs, total, nil
}

func (cs *conversationService) Update(ctx context.Context, id uuid.UUID, upd ConversationUpdate) (*types.Conversation, error) {
	if _, err := cs.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if upd.Title != nil {
		updates["title"] = *upd.Title
	}
	if upd.OutputType != nil {
		if *upd.OutputType != types.OutputTypeScript && *upd.OutputType != types.OutputTypeOutline {
			return nil, apierr.Validation(fmt.Errorf("output type must be %q or %q", types.OutputTypeScript, types.OutputTypeOutline))
		}
		updates["output_type"] = *upd.OutputType
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := cs.conversationRepo.Updates(ctx, nil, id, updates); err != nil {
			return nil, apierr.Storage(fmt.Errorf("update conversation: %w", err))
		}
	}
	return cs.Get(ctx, id)
}

func (cs *conversationService) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := cs.conversationRepo.DeleteByID(ctx, nil, id)
	if err != nil {
		return apierr.Storage(fmt.Errorf("delete conversation: %w", err))
	}
	if !found {
		return apierr.NotFound("conversation")
	}
	cs.log.Info("conversation deleted", "conversation_id", id)
	return nil
}

func (cs *conversationService) AddMessage(ctx context.Context, convID uuid.UUID, role, content string) (*types.Message, error) {
	if role != types.MessageRoleUser && role != types.MessageRoleAI {
		return nil, apierr.Validation(fmt.Errorf("role must be %q or %q", types.MessageRoleUser, types.MessageRoleAI))
	}
	if content == "" {
		return nil, apierr.Validation(fmt.Errorf("content is required"))
	}
	if _, err := cs.Get(ctx, convID); err != nil {
		return nil, err
	}
	msg := &types.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if _, err := cs.messageRepo.Create(ctx, nil, msg); err != nil {
		return nil, apierr.Storage(fmt.Errorf("create message: %w", err))
	}
	if err := cs.conversationRepo.Updates(ctx, nil, convID, map[string]interface{}{
		"updated_at": time.Now(),
	}); err != nil {
		cs.log.Error("failed to bump conversation timestamp", "conversation_id", convID, "error", err)
	}
	return msg, nil
}
