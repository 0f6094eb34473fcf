package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/model"
)

// ActivityLogFilter 操作日志查询条件
type ActivityLogFilter struct {
	UserID       string
	Action       string
	ResourceType string
}

// ActivityLogRepository 操作日志数据访问接口（只增不改）
type ActivityLogRepository interface {
	Create(ctx context.Context, log *model.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter, offset, limit int) ([]model.ActivityLog, int64, error)
}

type activityLogRepo struct {
	db *gorm.DB
}

// NewActivityLogRepo 创建 ActivityLogRepository 实例
func NewActivityLogRepo(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, log *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *activityLogRepo) List(ctx context.Context, filter ActivityLogFilter, offset, limit int) ([]model.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ActivityLog{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.ActivityLog
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, total, err
}
