package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	resSvc      *service.ReservationService
	activitySvc *service.ActivityService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(resSvc *service.ReservationService, activitySvc *service.ActivityService) *ReservationHandler {
	return &ReservationHandler{resSvc: resSvc, activitySvc: activitySvc}
}

// CreateReservation 创建预约
// POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	res, err := h.resSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"create", "reservation", res.ID, res.Title, c.ClientIP())

	response.Created(c, res)
}

// ListReservations 预约列表
// GET /api/v1/reservations
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.resSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetReservation 查询单个预约
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	res, err := h.resSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, res)
}

// UpdateReservation 更新预约（本人或 staff/admin）
// PUT /api/v1/reservations/:id
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	res, err := h.resSvc.Update(c.Request.Context(), userID, currentRole(c), c.Param("id"), &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, res)
}

// CancelReservation 取消预约（本人或 staff/admin，开始前）
// DELETE /api/v1/reservations/:id
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.resSvc.Cancel(c.Request.Context(), userID, currentRole(c), c.Param("id")); err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"cancel", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, nil)
}

// CheckIn 签到
// POST /api/v1/reservations/:id/check-in
func (h *ReservationHandler) CheckIn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	res, err := h.resSvc.CheckIn(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"check_in", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, res)
}

// ReturnEarly 提前归还
// POST /api/v1/reservations/:id/return
func (h *ReservationHandler) ReturnEarly(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	res, err := h.resSvc.ReturnEarly(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"return_early", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, res)
}

// ReportNoShow 举报爽约（任意登录用户）
// POST /api/v1/reservations/:id/no-show
func (h *ReservationHandler) ReportNoShow(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	res, err := h.resSvc.ReportNoShow(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"report_no_show", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, res)
}

// ApproveReservation 批准待审批预约（staff/admin）
// POST /api/v1/reservations/:id/approve
func (h *ReservationHandler) ApproveReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	res, err := h.resSvc.Approve(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"approve", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, res)
}

// RejectReservation 驳回待审批预约（staff/admin）
// POST /api/v1/reservations/:id/reject
func (h *ReservationHandler) RejectReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.resSvc.Reject(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"reject", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, nil)
}

// ForceCancelReservation 强制取消预约（仅 admin）
// POST /api/v1/reservations/:id/force-cancel
func (h *ReservationHandler) ForceCancelReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.resSvc.ForceCancel(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"force_cancel", "reservation", c.Param("id"), "", c.ClientIP())

	response.OK(c, nil)
}

// SetReservationStatus 人工设置预约状态（仅 admin）
// PUT /api/v1/reservations/:id/status
func (h *ReservationHandler) SetReservationStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.SetReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	res, err := h.resSvc.SetStatus(c.Request.Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &userID,
		"set_status", "reservation", c.Param("id"), req.Status, c.ClientIP())

	response.OK(c, res)
}

func (h *ReservationHandler) handleReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 14001, "预约不存在")
	case errors.Is(err, service.ErrRoomUnavailable):
		response.BadRequest(c, 14002, "房间不存在或未开放")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 14003, "预约时间区间无效")
	case errors.Is(err, service.ErrDurationExceeded):
		response.BadRequest(c, 14004, "预约时长超过上限")
	case errors.Is(err, service.ErrTimeConflict):
		response.Conflict(c, 14005, "时间段与已有预约冲突")
	case errors.Is(err, service.ErrUserBanned):
		response.Forbidden(c, 14006, "您处于封禁期，无法预约")
	case errors.Is(err, service.ErrNotOwner):
		response.Forbidden(c, 14007, "无权操作他人预约")
	case errors.Is(err, service.ErrInvalidTransition):
		response.BadRequest(c, 14008, "当前状态不允许该操作")
	case errors.Is(err, service.ErrStartedImmutable):
		response.BadRequest(c, 14009, "预约已开始，仅允许状态变更")
	case errors.Is(err, service.ErrCheckInWindow):
		response.BadRequest(c, 14010, "不在签到时间窗口内")
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		response.BadRequest(c, 14011, "该预约已签到")
	case errors.Is(err, service.ErrNoShowTooEarly):
		response.BadRequest(c, 14012, "未到爽约举报时间")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
