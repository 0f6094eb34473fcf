package dto

// ── 社团模块 DTO ──

// CreateClubRequest 创建社团请求
type CreateClubRequest struct {
	Name         string `json:"name"           binding:"required,min=1,max=100"`
	Description  string `json:"description"    binding:"omitempty,max=500"`
	MasterUserID string `json:"master_user_id" binding:"required,uuid"`
	MeetingDays  []int  `json:"meeting_days"   binding:"omitempty,max=7,dive,min=1,max=7"`
}

// UpdateClubRequest 更新社团请求
type UpdateClubRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"  binding:"omitempty,max=500"`
	MeetingDays *[]int  `json:"meeting_days" binding:"omitempty,max=7,dive,min=1,max=7"`
	IsActive    *bool   `json:"is_active"`
}

// AddClubMemberRequest 添加社团成员请求
type AddClubMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Role   string `json:"role"    binding:"omitempty,oneof=manager member"`
}

// ClubListRequest 社团列表查询参数
type ClubListRequest struct {
	PaginationRequest
	OnlyActive bool `form:"only_active"`
}

// ClubResponse 社团信息响应
type ClubResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Master      *UserBrief           `json:"master,omitempty"`
	MeetingDays []int                `json:"meeting_days,omitempty"`
	IsActive    bool                 `json:"is_active"`
	Members     []ClubMemberResponse `json:"members,omitempty"`
	CreatedAt   string               `json:"created_at"`
}

// ClubMemberResponse 社团成员响应
type ClubMemberResponse struct {
	User     UserBrief `json:"user"`
	Role     string    `json:"role"`
	JoinedAt string    `json:"joined_at"`
}
