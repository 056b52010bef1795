package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

type ConversationListFilter struct {
	OutputType string
	Page       int
	Limit      int
}

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) (*types.Conversation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filter ConversationListFilter) ([]*types.Conversation, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, page, limit int) ([]*types.Conversation, int64, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	repoLog := baseLog.With("repo", "ConversationRepo")
	return &conversationRepo{db: db, log: repoLog}
}

func (r *conversationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) (*types.Conversation, error) {
	if err := r.conn(tx).WithContext(ctx).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	var result types.Conversation
	if err := r.conn(tx).WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *conversationRepo) Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *conversationRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Conversation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *conversationRepo) List(ctx context.Context, tx *gorm.DB, filter ConversationListFilter) ([]*types.Conversation, int64, error) {
	q := r.conn(tx).WithContext(ctx).Model(&types.Conversation{})
	if filter.OutputType != "" {
		q = q.Where("output_type = ?", filter.OutputType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	var results []*types.Conversation
	if err := q.Order("updated_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// Search matches against conversation titles and their message contents.
func (r *conversationRepo) Search(ctx context.Context, tx *gorm.DB, query string, page, limit int) ([]*types.Conversation, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.conn(tx).WithContext(ctx).Model(&types.Conversation{}).
		Where(
			"LOWER(title) LIKE ? OR id IN (?)",
			pattern,
			r.conn(tx).Model(&types.Message{}).
				Select("conversation_id").
				Where("LOWER(content) LIKE ?", pattern),
		)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var results []*types.Conversation
	if err := q.Order("updated_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
