package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
	pkgerrors "github.com/42srr/GGS-helper-sub001/pkg/errors"
)

// 预约生命周期参数
const (
	MaxReservationDuration = 2 * time.Hour    // 单次预约时长上限
	CheckInOpenBefore      = 10 * time.Minute // 开始前多久可签到
	LateGraceAfterStart    = 10 * time.Minute // 开始后多久内签到不算迟到
	CheckInCloseAfterStart = 30 * time.Minute // 开始后多久关闭签到
	TempBanDuration        = 7 * 24 * time.Hour
	LatePerNoShow          = 3 // 累计迟到多少次折算一次爽约
	PermanentBanThreshold  = 3 // 累计爽约多少次永久封禁
)

// 预约模块错误
var (
	ErrReservationNotFound = errors.New("预约不存在")
	ErrRoomUnavailable     = errors.New("房间不存在或未开放")
	ErrInvalidTimeRange    = errors.New("预约时间区间无效")
	ErrDurationExceeded    = errors.New("预约时长超过上限")
	ErrTimeConflict        = errors.New("时间段与已有预约冲突")
	ErrUserBanned          = errors.New("用户处于封禁期，无法预约")
	ErrNotOwner            = errors.New("无权操作他人预约")
	ErrInvalidTransition   = errors.New("当前状态不允许该操作")
	ErrStartedImmutable    = errors.New("预约已开始，仅允许状态变更")
	ErrCheckInWindow       = errors.New("不在签到时间窗口内")
	ErrAlreadyCheckedIn    = errors.New("该预约已签到")
	ErrNoShowTooEarly      = errors.New("未到爽约举报时间")
)

// ReservationService 预约服务：预约生命周期与违约惩罚的核心状态机
type ReservationService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time // 测试时注入固定时钟
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(repo *repository.Repository, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create 创建预约
// 封禁校验 → 房间校验 → 时间校验 → 冲突检测（应用层 + 数据库排他约束双保险）
func (s *ReservationService) Create(ctx context.Context, userID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	now := s.now()

	user, err := s.loadUserWithBanLift(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if user.BannedAt(now) {
		return nil, ErrUserBanned
	}

	room, err := s.repo.Room.GetByID(ctx, req.RoomID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrRoomUnavailable
	}

	if err := validateTimeRange(req.StartTime, req.EndTime, now); err != nil {
		return nil, err
	}

	count, err := s.repo.Reservation.CountOverlapping(ctx, req.RoomID, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrTimeConflict
	}

	status := model.ReservationConfirmed
	if room.IsConfirm {
		// 审批房：创建后等待管理员确认
		status = model.ReservationPending
	}

	attendee := req.AttendeeCount
	if attendee <= 0 {
		attendee = 1
	}

	res := &model.Reservation{
		RoomID:        req.RoomID,
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		AttendeeCount: attendee,
		TeamName:      req.TeamName,
		Status:        status,
		Version:       1,
	}
	res.CreatedBy = &userID

	if err := s.repo.Reservation.Create(ctx, res); err != nil {
		if errors.Is(err, pkgerrors.ErrExclusionConflict) {
			// 应用层检测后、写入前被并发预约抢占
			return nil, ErrTimeConflict
		}
		return nil, err
	}

	s.logger.Info("预约已创建",
		zap.String("reservation_id", res.ReservationID),
		zap.String("room_id", res.RoomID),
		zap.String("user_id", userID),
		zap.String("status", status))

	res.Room = room
	res.User = user
	resp := toReservationResponse(res)
	return &resp, nil
}

// Get 查询单个预约
func (s *ReservationService) Get(ctx context.Context, id string) (*dto.ReservationResponse, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toReservationResponse(res)
	return &resp, nil
}

// List 分页查询预约
func (s *ReservationService) List(ctx context.Context, req *dto.ReservationListRequest) ([]dto.ReservationResponse, int64, error) {
	filter := repository.ReservationFilter{
		RoomID: req.RoomID,
		UserID: req.UserID,
		Status: req.Status,
		From:   req.From,
		To:     req.To,
	}
	list, total, err := s.repo.Reservation.List(ctx, filter, req.Offset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return toReservationResponses(list), total, nil
}

// Update 更新预约
// 开始前：本人或管理员可改内容字段；开始后：仅允许纯状态变更
// 状态字段仅 staff/admin 可改
func (s *ReservationService) Update(ctx context.Context, operatorID, operatorRole, id string, req *dto.UpdateReservationRequest) (*dto.ReservationResponse, error) {
	now := s.now()

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canOperate(res, operatorID, operatorRole) {
		return nil, ErrNotOwner
	}
	if res.Status == model.ReservationFinished || res.Status == model.ReservationCancelled {
		return nil, ErrInvalidTransition
	}

	if !now.Before(res.StartTime) && req.HasNonStatusChange() {
		return nil, ErrStartedImmutable
	}

	if req.Status != nil && *req.Status != res.Status {
		if !isStaff(operatorRole) {
			return nil, ErrNotOwner
		}
		res.Status = *req.Status
	}

	if req.Title != nil {
		res.Title = *req.Title
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.AttendeeCount != nil {
		res.AttendeeCount = *req.AttendeeCount
	}
	if req.TeamName != nil {
		res.TeamName = *req.TeamName
	}

	timeChanged := false
	if req.StartTime != nil {
		res.StartTime = *req.StartTime
		timeChanged = true
	}
	if req.EndTime != nil {
		res.EndTime = *req.EndTime
		timeChanged = true
	}
	if timeChanged {
		if err := validateTimeRange(res.StartTime, res.EndTime, now); err != nil {
			return nil, err
		}
		count, err := s.repo.Reservation.CountOverlapping(ctx, res.RoomID, res.StartTime, res.EndTime, res.ReservationID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrTimeConflict
		}
	}

	res.UpdatedBy = &operatorID
	if err := s.repo.Reservation.Update(ctx, res); err != nil {
		if errors.Is(err, pkgerrors.ErrExclusionConflict) {
			return nil, ErrTimeConflict
		}
		return nil, err
	}

	resp := toReservationResponse(res)
	return &resp, nil
}

// Cancel 用户取消预约（开始前），直接删除行
func (s *ReservationService) Cancel(ctx context.Context, operatorID, operatorRole, id string) error {
	now := s.now()

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return err
	}
	if !canOperate(res, operatorID, operatorRole) {
		return ErrNotOwner
	}
	if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
		return ErrInvalidTransition
	}
	if !now.Before(res.StartTime) {
		// 开始后取消等同爽约逃避，不允许
		return ErrInvalidTransition
	}

	if err := s.repo.Reservation.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("预约已取消",
		zap.String("reservation_id", id),
		zap.String("operator", operatorID))
	return nil
}

// CheckIn 签到
// 窗口为 [start-10m, start+30m]；开始 10 分钟后签到记一次迟到，
// 累计 3 次迟到折算一次爽约并清零迟到计数
func (s *ReservationService) CheckIn(ctx context.Context, userID, id string) (*dto.ReservationResponse, error) {
	now := s.now()

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrNotOwner
	}
	if res.Status != model.ReservationConfirmed {
		return nil, ErrInvalidTransition
	}
	if res.CheckedInAt != nil {
		return nil, ErrAlreadyCheckedIn
	}

	windowOpen := res.StartTime.Add(-CheckInOpenBefore)
	windowClose := res.StartTime.Add(CheckInCloseAfterStart)
	if now.Before(windowOpen) || now.After(windowClose) {
		return nil, ErrCheckInWindow
	}

	res.CheckedInAt = &now
	res.IsLate = now.After(res.StartTime.Add(LateGraceAfterStart))
	res.UpdatedBy = &userID
	if err := s.repo.Reservation.Update(ctx, res); err != nil {
		return nil, err
	}

	if res.IsLate {
		if err := s.recordLate(ctx, res.UserID, now); err != nil {
			return nil, err
		}
		s.logger.Info("迟到签到",
			zap.String("reservation_id", id),
			zap.String("user_id", userID))
	}

	resp := toReservationResponse(res)
	return &resp, nil
}

// ReturnEarly 提前归还：已签到的预约在结束前主动结束
func (s *ReservationService) ReturnEarly(ctx context.Context, userID, id string) (*dto.ReservationResponse, error) {
	now := s.now()

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrNotOwner
	}
	if res.Status != model.ReservationConfirmed || res.CheckedInAt == nil {
		return nil, ErrInvalidTransition
	}
	if !now.Before(res.EndTime) {
		return nil, ErrInvalidTransition
	}

	res.Status = model.ReservationFinished
	res.EndTime = now
	res.UpdatedBy = &userID
	if err := s.repo.Reservation.Update(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info("预约提前归还",
		zap.String("reservation_id", id),
		zap.String("user_id", userID))

	resp := toReservationResponse(res)
	return &resp, nil
}

// ReportNoShow 举报爽约（任意登录用户）
// 开始时间已过、且预约人未签到时可举报；已标记爽约的预约拒绝重复举报
func (s *ReservationService) ReportNoShow(ctx context.Context, reporterID, id string) (*dto.ReservationResponse, error) {
	now := s.now()

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	// 爽约标记会把状态置为 cancelled，重复举报在此一并拦截
	if res.IsNoShow || res.Status != model.ReservationConfirmed {
		return nil, ErrInvalidTransition
	}
	if res.CheckedInAt != nil {
		return nil, ErrAlreadyCheckedIn
	}
	if !now.After(res.StartTime) {
		return nil, ErrNoShowTooEarly
	}

	if err := s.markNoShow(ctx, res, now, reporterID); err != nil {
		return nil, err
	}

	resp := toReservationResponse(res)
	return &resp, nil
}

// Approve 管理员批准待审批预约
func (s *ReservationService) Approve(ctx context.Context, adminID, id string) (*dto.ReservationResponse, error) {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != model.ReservationPending {
		return nil, ErrInvalidTransition
	}

	res.Status = model.ReservationConfirmed
	res.UpdatedBy = &adminID
	if err := s.repo.Reservation.Update(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info("预约已批准",
		zap.String("reservation_id", id),
		zap.String("admin", adminID))

	resp := toReservationResponse(res)
	return &resp, nil
}

// Reject 管理员驳回待审批预约，直接删除行
func (s *ReservationService) Reject(ctx context.Context, adminID, id string) error {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return err
	}
	if res.Status != model.ReservationPending {
		return ErrInvalidTransition
	}

	if err := s.repo.Reservation.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("预约已驳回",
		zap.String("reservation_id", id),
		zap.String("admin", adminID))
	return nil
}

// ForceCancel 管理员强制取消：与用户取消一样直接删除行，但不做归属与时间窗校验
func (s *ReservationService) ForceCancel(ctx context.Context, adminID, id string) error {
	res, err := s.getReservation(ctx, id)
	if err != nil {
		return err
	}
	if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
		return ErrInvalidTransition
	}

	if err := s.repo.Reservation.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("预约已强制取消",
		zap.String("reservation_id", id),
		zap.String("admin", adminID))
	return nil
}

// SetStatus 管理员直接设置预约状态（人工纠错通道）
func (s *ReservationService) SetStatus(ctx context.Context, adminID, id, status string) (*dto.ReservationResponse, error) {
	if !model.ValidReservationStatus(status) {
		return nil, ErrInvalidTransition
	}

	res, err := s.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	res.Status = status
	res.UpdatedBy = &adminID
	if err := s.repo.Reservation.Update(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Warn("预约状态被人工覆盖",
		zap.String("reservation_id", id),
		zap.String("status", status),
		zap.String("admin", adminID))

	resp := toReservationResponse(res)
	return &resp, nil
}

// ── 巡检 ──

// SweepFinished 将已过结束时间的 confirmed 预约批量置为 finished（每小时执行）
func (s *ReservationService) SweepFinished(ctx context.Context) (int64, error) {
	affected, err := s.repo.Reservation.MarkFinishedBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.logger.Info("完成巡检", zap.Int64("affected", affected))
	}
	return affected, nil
}

// SweepNoShows 对超过签到窗口仍未签到的预约落爽约惩罚（每 5 分钟执行）
// 单行失败只记日志不中断，剩余行继续处理
func (s *ReservationService) SweepNoShows(ctx context.Context) (int64, error) {
	now := s.now()
	cutoff := now.Add(-CheckInCloseAfterStart)

	candidates, err := s.repo.Reservation.ListNoShowCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var affected int64
	for i := range candidates {
		res := &candidates[i]
		if err := s.markNoShow(ctx, res, now, ""); err != nil {
			s.logger.Error("爽约巡检单行处理失败",
				zap.String("reservation_id", res.ReservationID),
				zap.Error(err))
			continue
		}
		affected++
	}

	if affected > 0 {
		s.logger.Info("爽约巡检", zap.Int64("affected", affected))
	}
	return affected, nil
}

// ── 内部辅助 ──

func (s *ReservationService) getReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := s.repo.Reservation.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// loadUserWithBanLift 加载用户；临时封禁已到期时顺带解除并落库
func (s *ReservationService) loadUserWithBanLift(ctx context.Context, userID string, now time.Time) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if user.BanStatus == model.BanTemporary && (user.BanUntil == nil || !user.BanUntil.After(now)) {
		user.BanStatus = model.BanNone
		user.BanUntil = nil
		if err := s.repo.User.Update(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("临时封禁到期解除", zap.String("user_id", userID))
	}

	return user, nil
}

// markNoShow 爽约落库：预约标记 + 用户惩罚，两步顺序执行
// 状态置为 cancelled，释放占用的时间段并阻断后续签到/完成巡检
func (s *ReservationService) markNoShow(ctx context.Context, res *model.Reservation, now time.Time, reportedBy string) error {
	res.IsNoShow = true
	res.NoShowReportedAt = &now
	res.NoShowReportCount++
	res.Status = model.ReservationCancelled
	if reportedBy != "" {
		res.UpdatedBy = &reportedBy
	}
	if err := s.repo.Reservation.Update(ctx, res); err != nil {
		return err
	}

	if err := s.applyNoShowPenalty(ctx, res.UserID, now); err != nil {
		return err
	}

	s.logger.Info("爽约已记录",
		zap.String("reservation_id", res.ReservationID),
		zap.String("user_id", res.UserID))
	return nil
}

// applyNoShowPenalty 爽约惩罚：计数 +1；达到阈值永久封禁，否则临时封禁 7 天
func (s *ReservationService) applyNoShowPenalty(ctx context.Context, userID string, now time.Time) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.NoShowCount++
	user.LastNoShowAt = &now
	if user.NoShowCount >= PermanentBanThreshold {
		user.BanStatus = model.BanPermanent
		user.BanUntil = nil
	} else {
		until := now.Add(TempBanDuration)
		user.BanStatus = model.BanTemporary
		user.BanUntil = &until
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Warn("爽约惩罚已生效",
		zap.String("user_id", userID),
		zap.Int("no_show_count", user.NoShowCount),
		zap.String("ban_status", user.BanStatus))
	return nil
}

// recordLate 迟到计数：累计 3 次折算一次爽约并清零
func (s *ReservationService) recordLate(ctx context.Context, userID string, now time.Time) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.LateCount++
	if user.LateCount < LatePerNoShow {
		return s.repo.User.Update(ctx, user)
	}

	// 第 3 次迟到：清零并按一次爽约惩罚
	user.LateCount = 0
	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}
	return s.applyNoShowPenalty(ctx, userID, now)
}

// validateTimeRange 时间区间合法性：start < end、不可预约过去、时长 ≤ 上限
func validateTimeRange(start, end, now time.Time) error {
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	if start.Before(now) {
		return ErrInvalidTimeRange
	}
	if end.Sub(start) > MaxReservationDuration {
		return ErrDurationExceeded
	}
	return nil
}

func canOperate(res *model.Reservation, operatorID, operatorRole string) bool {
	return res.UserID == operatorID || isStaff(operatorRole)
}

func isStaff(role string) bool {
	return role == model.RoleStaff || role == model.RoleAdmin
}
