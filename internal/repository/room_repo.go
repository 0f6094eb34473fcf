package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/model"
	pkgerrors "github.com/42srr/GGS-helper-sub001/pkg/errors"
)

// RoomRepository 房间数据访问接口
type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context, onlyActive bool, offset, limit int) ([]model.Room, int64, error)
	ListAll(ctx context.Context) ([]model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type roomRepo struct {
	db *gorm.DB
}

// NewRoomRepo 创建 RoomRepository 实例
func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).
		Where("room_id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) List(ctx context.Context, onlyActive bool, offset, limit int) ([]model.Room, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Room{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rooms []model.Room
	err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&rooms).Error
	return rooms, total, err
}

func (r *roomRepo) ListAll(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) Update(ctx context.Context, room *model.Room) error {
	oldVersion := room.Version
	result := r.db.WithContext(ctx).
		Model(room).
		Where("room_id = ? AND version = ?", room.RoomID, oldVersion).
		Updates(map[string]interface{}{
			"name":        room.Name,
			"location":    room.Location,
			"capacity":    room.Capacity,
			"description": room.Description,
			"is_confirm":  room.IsConfirm,
			"is_active":   room.IsActive,
			"updated_by":  room.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	room.Version = oldVersion + 1
	return nil
}

func (r *roomRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("room_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
