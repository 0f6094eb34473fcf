package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/model"
	pkgerrors "github.com/42srr/GGS-helper-sub001/pkg/errors"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetByIntraID(ctx context.Context, intraID int64) (*model.User, error)
	List(ctx context.Context, keyword, role string, banned *bool, offset, limit int) ([]model.User, int64, error)
	ListAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("login = ?", login).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIntraID(ctx context.Context, intraID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("intra_id = ?", intraID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, keyword, role string, banned *bool, offset, limit int) ([]model.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{})

	if keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("login ILIKE ? OR name ILIKE ?", like, like)
	}
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if banned != nil {
		if *banned {
			query = query.Where("ban_status <> ?", model.BanNone)
		} else {
			query = query.Where("ban_status = ?", model.BanNone)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := query.Order("login ASC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepo) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("login ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	oldVersion := user.Version
	result := r.db.WithContext(ctx).
		Model(user).
		Where("user_id = ? AND version = ?", user.UserID, oldVersion).
		Updates(map[string]interface{}{
			"name":            user.Name,
			"email":           user.Email,
			"avatar_url":      user.AvatarURL,
			"role":            user.Role,
			"password_hash":   user.PasswordHash,
			"no_show_count":   user.NoShowCount,
			"last_no_show_at": user.LastNoShowAt,
			"late_count":      user.LateCount,
			"ban_status":      user.BanStatus,
			"ban_until":       user.BanUntil,
			"updated_by":      user.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version = oldVersion + 1
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
