package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
)

// ActivityService 操作日志服务（只增不改的审计通道）
type ActivityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

// Record 记录一条操作日志
// 审计失败不应阻断业务，落库失败只记应用日志
func (s *ActivityService) Record(ctx context.Context, userID *string, action, resourceType, resourceID, detail, clientIP string) {
	log := &model.ActivityLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
		ClientIP:     clientIP,
	}
	if err := s.repo.ActivityLog.Create(ctx, log); err != nil {
		s.logger.Error("操作日志落库失败",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.Error(err))
	}
}

// List 分页查询操作日志（仅 admin）
func (s *ActivityService) List(ctx context.Context, req *dto.ActivityLogListRequest) ([]dto.ActivityLogResponse, int64, error) {
	filter := repository.ActivityLogFilter{
		UserID:       req.UserID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
	}
	logs, total, err := s.repo.ActivityLog.List(ctx, filter, req.Offset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	resps := make([]dto.ActivityLogResponse, len(logs))
	for i := range logs {
		resps[i] = toActivityLogResponse(&logs[i])
	}
	return resps, total, nil
}
