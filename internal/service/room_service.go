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

// 房间模块错误
var (
	ErrRoomNotFound = errors.New("房间不存在")
)

// RoomService 房间服务
type RoomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(repo *repository.Repository, logger *zap.Logger) *RoomService {
	return &RoomService{repo: repo, logger: logger}
}

// Create 创建房间（仅 admin）
func (s *RoomService) Create(ctx context.Context, req *dto.CreateRoomRequest, operatorID string) (*dto.RoomResponse, error) {
	room := &model.Room{
		Name:        req.Name,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Description: req.Description,
		IsConfirm:   req.IsConfirm,
		IsActive:    true,
	}
	room.CreatedBy = &operatorID

	if err := s.repo.Room.Create(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("房间已创建",
		zap.String("room_id", room.RoomID),
		zap.String("name", room.Name))

	resp := toRoomResponse(room)
	return &resp, nil
}

// Get 查询单个房间
func (s *RoomService) Get(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := toRoomResponse(room)
	return &resp, nil
}

// List 分页查询房间
func (s *RoomService) List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, int64, error) {
	rooms, total, err := s.repo.Room.List(ctx, req.OnlyActive, req.Offset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	resps := make([]dto.RoomResponse, len(rooms))
	for i := range rooms {
		resps[i] = toRoomResponse(&rooms[i])
	}
	return resps, total, nil
}

// Update 更新房间信息（仅 admin）
func (s *RoomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, operatorID string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Location != nil {
		room.Location = *req.Location
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.IsConfirm != nil {
		room.IsConfirm = *req.IsConfirm
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	room.UpdatedBy = &operatorID

	if err := s.repo.Room.Update(ctx, room); err != nil {
		return nil, err
	}

	resp := toRoomResponse(room)
	return &resp, nil
}

// Delete 软删除房间（仅 admin；已存在的预约记录保留）
func (s *RoomService) Delete(ctx context.Context, id, operatorID string) error {
	if _, err := s.repo.Room.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return s.repo.Room.Delete(ctx, id, operatorID)
}
