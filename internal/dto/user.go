package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"` // 按 login/姓名模糊匹配
	Role    string `form:"role"    binding:"omitempty,oneof=member staff admin"`
	Banned  *bool  `form:"banned"`
}

// UpdateUserRequest 更新用户请求（admin 或本人）
type UpdateUserRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=1,max=100"`
	Email     *string `json:"email"      binding:"omitempty,email"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=500"`
}

// AssignRoleRequest 角色分配请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member staff admin"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	ID           string  `json:"id"`
	IntraID      int64   `json:"intra_id,omitempty"`
	Login        string  `json:"login"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	AvatarURL    string  `json:"avatar_url,omitempty"`
	Role         string  `json:"role"`
	NoShowCount  int     `json:"no_show_count"`
	LateCount    int     `json:"late_count"`
	BanStatus    string  `json:"ban_status"`
	BanUntil     *string `json:"ban_until,omitempty"`
	LastNoShowAt *string `json:"last_no_show_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// ImportUserResponse 批量导入结果
type ImportUserResponse struct {
	Total    int               `json:"total"`
	Created  int               `json:"created"`
	Skipped  int               `json:"skipped"`
	Failures []ImportUserError `json:"failures,omitempty"`
}

// ImportUserError 批量导入单行失败信息
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
