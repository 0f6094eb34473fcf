package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
)

// 社团模块错误
var (
	ErrClubNotFound    = errors.New("社团不存在")
	ErrClubNameTaken   = errors.New("社团名称已存在")
	ErrMemberExists    = errors.New("该用户已是社团成员")
	ErrMemberNotFound  = errors.New("该用户不是社团成员")
	ErrMasterImmutable = errors.New("社长身份不能通过成员接口变更")
	ErrNotClubManager  = errors.New("无社团管理权限")
)

// ClubService 社团服务：社团与成员管理
type ClubService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClubService 创建 ClubService 实例
func NewClubService(repo *repository.Repository, logger *zap.Logger) *ClubService {
	return &ClubService{repo: repo, logger: logger}
}

// Create 创建社团（仅 admin），社长自动成为首位成员
func (s *ClubService) Create(ctx context.Context, req *dto.CreateClubRequest, operatorID string) (*dto.ClubResponse, error) {
	if _, err := s.repo.Club.GetByName(ctx, req.Name); err == nil {
		return nil, ErrClubNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	master, err := s.repo.User.GetByID(ctx, req.MasterUserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	club := &model.Club{
		Name:         req.Name,
		Description:  req.Description,
		MasterUserID: req.MasterUserID,
		MeetingDays:  model.IntArray(req.MeetingDays),
		IsActive:     true,
	}
	club.CreatedBy = &operatorID

	if err := s.repo.Club.Create(ctx, club); err != nil {
		return nil, err
	}

	if err := s.repo.Club.AddMember(ctx, &model.ClubMember{
		ClubID: club.ClubID,
		UserID: req.MasterUserID,
		Role:   model.ClubRoleMaster,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("社团已创建",
		zap.String("club_id", club.ClubID),
		zap.String("name", club.Name),
		zap.String("master", master.Login))

	club.Master = master
	resp := toClubResponse(club, false)
	return &resp, nil
}

// Get 查询社团详情（含成员列表）
func (s *ClubService) Get(ctx context.Context, id string) (*dto.ClubResponse, error) {
	club, err := s.repo.Club.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := toClubResponse(club, true)
	return &resp, nil
}

// List 分页查询社团
func (s *ClubService) List(ctx context.Context, req *dto.ClubListRequest) ([]dto.ClubResponse, int64, error) {
	clubs, total, err := s.repo.Club.List(ctx, "", req.OnlyActive, req.Offset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	resps := make([]dto.ClubResponse, len(clubs))
	for i := range clubs {
		resps[i] = toClubResponse(&clubs[i], false)
	}
	return resps, total, nil
}

// Update 更新社团（admin 或社团管理层）
func (s *ClubService) Update(ctx context.Context, id string, req *dto.UpdateClubRequest, operatorID, operatorRole string) (*dto.ClubResponse, error) {
	club, err := s.repo.Club.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.requireManager(ctx, club, operatorID, operatorRole); err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != club.Name {
		if _, err := s.repo.Club.GetByName(ctx, *req.Name); err == nil {
			return nil, ErrClubNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		club.Name = *req.Name
	}
	if req.Description != nil {
		club.Description = *req.Description
	}
	if req.MeetingDays != nil {
		club.MeetingDays = model.IntArray(*req.MeetingDays)
	}
	if req.IsActive != nil {
		club.IsActive = *req.IsActive
	}
	club.UpdatedBy = &operatorID

	if err := s.repo.Club.Update(ctx, club); err != nil {
		return nil, err
	}

	resp := toClubResponse(club, false)
	return &resp, nil
}

// Delete 软删除社团（仅 admin）
func (s *ClubService) Delete(ctx context.Context, id, operatorID string) error {
	if _, err := s.repo.Club.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClubNotFound
		}
		return err
	}
	return s.repo.Club.Delete(ctx, id, operatorID)
}

// ── 成员管理 ──

// AddMember 添加社团成员（admin 或社团管理层）
func (s *ClubService) AddMember(ctx context.Context, clubID string, req *dto.AddClubMemberRequest, operatorID, operatorRole string) error {
	club, err := s.repo.Club.GetByID(ctx, clubID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrClubNotFound
	}
	if err != nil {
		return err
	}

	if err := s.requireManager(ctx, club, operatorID, operatorRole); err != nil {
		return err
	}

	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if _, err := s.repo.Club.GetMember(ctx, clubID, req.UserID); err == nil {
		return ErrMemberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	role := req.Role
	if role == "" {
		role = model.ClubRoleMember
	}

	return s.repo.Club.AddMember(ctx, &model.ClubMember{
		ClubID: clubID,
		UserID: req.UserID,
		Role:   role,
	})
}

// ListMembers 查询社团成员列表
func (s *ClubService) ListMembers(ctx context.Context, clubID string) ([]dto.ClubMemberResponse, error) {
	if _, err := s.repo.Club.GetByID(ctx, clubID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}

	members, err := s.repo.Club.ListMembers(ctx, clubID)
	if err != nil {
		return nil, err
	}

	resps := make([]dto.ClubMemberResponse, len(members))
	for i := range members {
		resps[i] = toClubMemberResponse(&members[i])
	}
	return resps, nil
}

// UpdateMemberRole 变更成员角色（admin 或社团管理层；社长角色不可经此变更）
func (s *ClubService) UpdateMemberRole(ctx context.Context, clubID, userID, role, operatorID, operatorRole string) error {
	club, err := s.repo.Club.GetByID(ctx, clubID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrClubNotFound
	}
	if err != nil {
		return err
	}

	if err := s.requireManager(ctx, club, operatorID, operatorRole); err != nil {
		return err
	}
	if userID == club.MasterUserID || role == model.ClubRoleMaster {
		return ErrMasterImmutable
	}

	if err := s.repo.Club.UpdateMemberRole(ctx, clubID, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

// RemoveMember 移除社团成员（admin、社团管理层或本人退出；社长不可移除）
func (s *ClubService) RemoveMember(ctx context.Context, clubID, userID, operatorID, operatorRole string) error {
	club, err := s.repo.Club.GetByID(ctx, clubID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrClubNotFound
	}
	if err != nil {
		return err
	}

	if userID != operatorID {
		if err := s.requireManager(ctx, club, operatorID, operatorRole); err != nil {
			return err
		}
	}
	if userID == club.MasterUserID {
		return ErrMasterImmutable
	}

	if _, err := s.repo.Club.GetMember(ctx, clubID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	return s.repo.Club.RemoveMember(ctx, clubID, userID)
}

// requireManager 校验操作人为站点管理员或社团管理层（master/manager）
func (s *ClubService) requireManager(ctx context.Context, club *model.Club, operatorID, operatorRole string) error {
	if operatorRole == model.RoleAdmin {
		return nil
	}
	if club.MasterUserID == operatorID {
		return nil
	}

	member, err := s.repo.Club.GetMember(ctx, club.ClubID, operatorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotClubManager
	}
	if err != nil {
		return err
	}
	if member.Role != model.ClubRoleMaster && member.Role != model.ClubRoleManager {
		return ErrNotClubManager
	}
	return nil
}
