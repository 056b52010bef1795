package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

type ScriptListFilter struct {
	Status string
	Genre  string
	Page   int
	Limit  int
}

type ScriptStats struct {
	TotalScripts int64            `json:"total_scripts"`
	TotalSize    int64            `json:"total_size"`
	AvgSize      int64            `json:"avg_size"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByGenre      map[string]int64 `json:"by_genre"`
}

type ScriptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, script *types.Script) (*types.Script, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Script, error)
	Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	List(ctx context.Context, tx *gorm.DB, filter ScriptListFilter) ([]*types.Script, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, page, limit int) ([]*types.Script, int64, error)
	Stats(ctx context.Context, tx *gorm.DB) (*ScriptStats, error)
}

type scriptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScriptRepo(db *gorm.DB, baseLog *logger.Logger) ScriptRepo {
	repoLog := baseLog.With("repo", "ScriptRepo")
	return &scriptRepo{db: db, log: repoLog}
}

func (r *scriptRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *scriptRepo) Create(ctx context.Context, tx *gorm.DB, script *types.Script) (*types.Script, error) {
	if err := r.conn(tx).WithContext(ctx).Create(script).Error; err != nil {
		return nil, err
	}
	return script, nil
}

func (r *scriptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Script, error) {
	var result types.Script
	if err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *scriptRepo) Updates(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Script{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// DeleteByID hard-deletes the record. The bool reports whether a row existed.
func (r *scriptRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Script{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns a page of scripts with content omitted, newest first.
func (r *scriptRepo) List(ctx context.Context, tx *gorm.DB, filter ScriptListFilter) ([]*types.Script, int64, error) {
	q := r.conn(tx).WithContext(ctx).Model(&types.Script{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Genre != "" {
		q = q.Where("genre = ?", filter.Genre)
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

	var results []*types.Script
	if err := q.Omit("content").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *scriptRepo) Search(ctx context.Context, tx *gorm.DB, query string, page, limit int) ([]*types.Script, int64, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	q := r.conn(tx).WithContext(ctx).Model(&types.Script{}).
		Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(genre) LIKE ? OR LOWER(author) LIKE ?",
			pattern, pattern, pattern, pattern)

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

	var results []*types.Script
	if err := q.Omit("content").
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *scriptRepo) Stats(ctx context.Context, tx *gorm.DB) (*ScriptStats, error) {
	conn := r.conn(tx).WithContext(ctx)

	stats := &ScriptStats{
		ByStatus: map[string]int64{},
		ByGenre:  map[string]int64{},
	}

	row := conn.Model(&types.Script{}).
		Select("COUNT(*), COALESCE(SUM(size_bytes), 0), COALESCE(AVG(size_bytes), 0)").
		Row()
	var avg float64
	if err := row.Scan(&stats.TotalScripts, &stats.TotalSize, &avg); err != nil {
		return nil, err
	}
	stats.AvgSize = int64(avg)

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := conn.Model(&types.Script{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byGenre []bucket
	if err := conn.Model(&types.Script{}).
		Select("genre AS key, COUNT(*) AS count").
		Group("genre").
		Scan(&byGenre).Error; err != nil {
		return nil, err
	}
	for _, b := range byGenre {
		stats.ByGenre[b.Key] = b.Count
	}

	return stats, nil
}
