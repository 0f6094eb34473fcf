package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/model"
	pkgerrors "github.com/42srr/GGS-helper-sub001/pkg/errors"
)

// ClubRepository 社团数据访问接口
type ClubRepository interface {
	Create(ctx context.Context, club *model.Club) error
	GetByID(ctx context.Context, id string) (*model.Club, error)
	GetByName(ctx context.Context, name string) (*model.Club, error)
	List(ctx context.Context, keyword string, onlyActive bool, offset, limit int) ([]model.Club, int64, error)
	ListAll(ctx context.Context) ([]model.Club, error)
	Update(ctx context.Context, club *model.Club) error
	Delete(ctx context.Context, id string, deletedBy string) error

	AddMember(ctx context.Context, member *model.ClubMember) error
	GetMember(ctx context.Context, clubID, userID string) (*model.ClubMember, error)
	ListMembers(ctx context.Context, clubID string) ([]model.ClubMember, error)
	UpdateMemberRole(ctx context.Context, clubID, userID, role string) error
	RemoveMember(ctx context.Context, clubID, userID string) error
}

type clubRepo struct {
	db *gorm.DB
}

// NewClubRepo 创建 ClubRepository 实例
func NewClubRepo(db *gorm.DB) ClubRepository {
	return &clubRepo{db: db}
}

func (r *clubRepo) Create(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *clubRepo) GetByID(ctx context.Context, id string) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Preload("Master").
		Preload("Members").
		Preload("Members.User").
		Where("club_id = ?", id).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepo) GetByName(ctx context.Context, name string) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepo) List(ctx context.Context, keyword string, onlyActive bool, offset, limit int) ([]model.Club, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Club{})
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clubs []model.Club
	err := query.Preload("Master").Order("name ASC").Offset(offset).Limit(limit).Find(&clubs).Error
	return clubs, total, err
}

func (r *clubRepo) ListAll(ctx context.Context) ([]model.Club, error) {
	var clubs []model.Club
	err := r.db.WithContext(ctx).Preload("Master").Order("name ASC").Find(&clubs).Error
	return clubs, err
}

func (r *clubRepo) Update(ctx context.Context, club *model.Club) error {
	oldVersion := club.Version
	result := r.db.WithContext(ctx).
		Model(club).
		Where("club_id = ? AND version = ?", club.ClubID, oldVersion).
		Updates(map[string]interface{}{
			"name":           club.Name,
			"description":    club.Description,
			"master_user_id": club.MasterUserID,
			"meeting_days":   club.MeetingDays,
			"is_active":      club.IsActive,
			"updated_by":     club.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	club.Version = oldVersion + 1
	return nil
}

func (r *clubRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Club{}).
		Where("club_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ── 社团成员 ──

func (r *clubRepo) AddMember(ctx context.Context, member *model.ClubMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *clubRepo) GetMember(ctx context.Context, clubID, userID string) (*model.ClubMember, error) {
	var member model.ClubMember
	err := r.db.WithContext(ctx).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *clubRepo) ListMembers(ctx context.Context, clubID string) ([]model.ClubMember, error) {
	var members []model.ClubMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("club_id = ?", clubID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *clubRepo) UpdateMemberRole(ctx context.Context, clubID, userID, role string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ClubMember{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *clubRepo) RemoveMember(ctx context.Context, clubID, userID string) error {
	return r.db.WithContext(ctx).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Delete(&model.ClubMember{}).Error
}
