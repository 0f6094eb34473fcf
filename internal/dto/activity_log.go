package dto

// ── 操作日志模块 DTO ──

// ActivityLogListRequest 操作日志查询参数
type ActivityLogListRequest struct {
	PaginationRequest
	UserID       string `form:"user_id"       binding:"omitempty,uuid"`
	Action       string `form:"action"        binding:"omitempty,max=50"`
	ResourceType string `form:"resource_type" binding:"omitempty,max=50"`
}

// ActivityLogResponse 操作日志响应
type ActivityLogResponse struct {
	ID           string  `json:"id"`
	UserID       *string `json:"user_id,omitempty"`
	Action       string  `json:"action"`
	ResourceType string  `json:"resource_type"`
	ResourceID   string  `json:"resource_id,omitempty"`
	Detail       string  `json:"detail,omitempty"`
	ClientIP     string  `json:"client_ip,omitempty"`
	CreatedAt    string  `json:"created_at"`
}
