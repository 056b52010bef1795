package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error)
	GetLastByConversationID(ctx context.Context, tx *gorm.DB, convID uuid.UUID, n int) ([]*types.Message, error)
	CountByConversationID(ctx context.Context, tx *gorm.DB, convID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (r *messageRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
	if err := r.conn(tx).WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// GetLastByConversationID returns up to n most recent messages in
// chronological order.
func (r *messageRepo) GetLastByConversationID(ctx context.Context, tx *gorm.DB, convID uuid.UUID, n int) ([]*types.Message, error) {
	if n < 1 {
		return []*types.Message{}, nil
	}
	var results []*types.Message
	if err := r.conn(tx).WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC").
		Limit(n).
		Find(&results).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func (r *messageRepo) CountByConversationID(ctx context.Context, tx *gorm.DB, convID uuid.UUID) (int64, error) {
	var count int64
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", convID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
