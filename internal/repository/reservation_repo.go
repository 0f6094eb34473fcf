package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/model"
	pkgerrors "github.com/42srr/GGS-helper-sub001/pkg/errors"
)

// ReservationFilter 预约列表过滤条件
type ReservationFilter struct {
	RoomID string
	UserID string
	Status string
	From   *time.Time
	To     *time.Time
}

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	List(ctx context.Context, filter ReservationFilter, offset, limit int) ([]model.Reservation, int64, error)
	ListUpcomingByUser(ctx context.Context, userID string, from time.Time) ([]model.Reservation, error)
	ListAll(ctx context.Context) ([]model.Reservation, error)
	CountOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int64, error)
	Update(ctx context.Context, res *model.Reservation) error
	Delete(ctx context.Context, id string) error
	MarkFinishedBefore(ctx context.Context, now time.Time) (int64, error)
	ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

// exclusionConflict 识别数据库排他约束冲突（同房间时间段重叠）
// PostgreSQL 错误码 23P01 = exclusion_violation
func exclusionConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func (r *reservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if err := r.db.WithContext(ctx).Create(res).Error; err != nil {
		if exclusionConflict(err) {
			return pkgerrors.ErrExclusionConflict
		}
		return err
	}
	return nil
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("User").
		Where("reservation_id = ?", id).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) List(ctx context.Context, filter ReservationFilter, offset, limit int) ([]model.Reservation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Reservation{})

	if filter.RoomID != "" {
		query = query.Where("room_id = ?", filter.RoomID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("end_time > ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_time < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Reservation
	err := query.
		Preload("Room").
		Preload("User").
		Order("start_time ASC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *reservationRepo) ListUpcomingByUser(ctx context.Context, userID string, from time.Time) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("user_id = ? AND end_time > ? AND status IN ?",
			userID, from, []string{model.ReservationPending, model.ReservationConfirmed}).
		Order("start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *reservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("User").
		Order("start_time ASC").
		Find(&list).Error
	return list, err
}

// CountOverlapping 半开区间重叠统计：existing.start < end AND existing.end > start
// 已取消/已结束的预约不参与冲突；excludeID 用于更新时排除自身
func (r *reservationRepo) CountOverlapping(ctx context.Context, roomID string, start, end time.Time, excludeID string) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("room_id = ? AND start_time < ? AND end_time > ?", roomID, end, start).
		Where("status IN ?", []string{model.ReservationPending, model.ReservationConfirmed})
	if excludeID != "" {
		query = query.Where("reservation_id <> ?", excludeID)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *reservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	oldVersion := res.Version
	result := r.db.WithContext(ctx).
		Model(res).
		Where("reservation_id = ? AND version = ?", res.ReservationID, oldVersion).
		Updates(map[string]interface{}{
			"title":                res.Title,
			"description":          res.Description,
			"start_time":           res.StartTime,
			"end_time":             res.EndTime,
			"attendee_count":       res.AttendeeCount,
			"team_name":            res.TeamName,
			"status":               res.Status,
			"is_no_show":           res.IsNoShow,
			"no_show_reported_at":  res.NoShowReportedAt,
			"no_show_report_count": res.NoShowReportCount,
			"checked_in_at":        res.CheckedInAt,
			"is_late":              res.IsLate,
			"updated_by":           res.UpdatedBy,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		if exclusionConflict(result.Error) {
			return pkgerrors.ErrExclusionConflict
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	res.Version = oldVersion + 1
	return nil
}

// Delete 硬删除（用户取消与管理员驳回均删除行）
func (r *reservationRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("reservation_id = ?", id).
		Delete(&model.Reservation{}).Error
}

// MarkFinishedBefore 批量将已过结束时间的 confirmed 预约置为 finished
// 供每小时巡检调用；返回受影响行数
func (r *reservationRepo) MarkFinishedBefore(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("status = ? AND end_time < ?", model.ReservationConfirmed, now).
		Updates(map[string]interface{}{
			"status":  model.ReservationFinished,
			"version": gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// ListNoShowCandidates 列出超过签到窗口仍未签到的 confirmed 预约
// cutoff = now - 30min，即 start_time < cutoff 的预约已无法签到
func (r *reservationRepo) ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND checked_in_at IS NULL AND is_no_show = ? AND start_time < ?",
			model.ReservationConfirmed, false, cutoff).
		Order("start_time ASC").
		Find(&list).Error
	return list, err
}
