package dto

import "time"

// ── 预约模块 DTO ──

// CreateReservationRequest 创建预约请求
type CreateReservationRequest struct {
	RoomID        string    `json:"room_id"        binding:"required,uuid"`
	Title         string    `json:"title"          binding:"required,min=1,max=100"`
	Description   string    `json:"description"    binding:"omitempty,max=500"`
	StartTime     time.Time `json:"start_time"     binding:"required"`
	EndTime       time.Time `json:"end_time"       binding:"required"`
	AttendeeCount int       `json:"attendee_count" binding:"omitempty,min=1,max=1000"`
	TeamName      string    `json:"team_name"      binding:"omitempty,max=100"`
}

// UpdateReservationRequest 更新预约请求
// 预约开始后仅允许纯状态变更（其余字段必须为空）
type UpdateReservationRequest struct {
	Title         *string    `json:"title"          binding:"omitempty,min=1,max=100"`
	Description   *string    `json:"description"    binding:"omitempty,max=500"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	AttendeeCount *int       `json:"attendee_count" binding:"omitempty,min=1,max=1000"`
	TeamName      *string    `json:"team_name"      binding:"omitempty,max=100"`
	Status        *string    `json:"status"         binding:"omitempty,oneof=pending confirmed finished cancelled"`
}

// HasNonStatusChange 是否包含状态以外的字段变更
func (r *UpdateReservationRequest) HasNonStatusChange() bool {
	return r.Title != nil || r.Description != nil || r.StartTime != nil ||
		r.EndTime != nil || r.AttendeeCount != nil || r.TeamName != nil
}

// ReservationListRequest 预约列表查询参数
type ReservationListRequest struct {
	PaginationRequest
	RoomID string     `form:"room_id" binding:"omitempty,uuid"`
	UserID string     `form:"user_id" binding:"omitempty,uuid"`
	Status string     `form:"status"  binding:"omitempty,oneof=pending confirmed finished cancelled"`
	From   *time.Time `form:"from"    time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to"      time_format:"2006-01-02T15:04:05Z07:00"`
}

// SetReservationStatusRequest 管理员强制设置状态请求
type SetReservationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed finished cancelled"`
}

// ReservationResponse 预约信息响应
type ReservationResponse struct {
	ID                string     `json:"id"`
	Room              *RoomBrief `json:"room,omitempty"`
	RoomID            string     `json:"room_id"`
	User              *UserBrief `json:"user,omitempty"`
	UserID            string     `json:"user_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	StartTime         string     `json:"start_time"`
	EndTime           string     `json:"end_time"`
	AttendeeCount     int        `json:"attendee_count"`
	TeamName          string     `json:"team_name,omitempty"`
	Status            string     `json:"status"`
	IsNoShow          bool       `json:"is_no_show"`
	NoShowReportedAt  *string    `json:"no_show_reported_at,omitempty"`
	NoShowReportCount int        `json:"no_show_report_count"`
	CheckedInAt       *string    `json:"checked_in_at,omitempty"`
	IsLate            bool       `json:"is_late"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

// SweepResultResponse 手动触发巡检的结果
type SweepResultResponse struct {
	Affected int64 `json:"affected"`
}
