package dto

// ── 房间模块 DTO ──

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Location    string `json:"location"    binding:"omitempty,max=200"`
	Capacity    int    `json:"capacity"    binding:"omitempty,min=0,max=1000"`
	Description string `json:"description" binding:"omitempty,max=500"`
	IsConfirm   bool   `json:"is_confirm"`
}

// UpdateRoomRequest 更新房间请求
type UpdateRoomRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Location    *string `json:"location"    binding:"omitempty,max=200"`
	Capacity    *int    `json:"capacity"    binding:"omitempty,min=0,max=1000"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsConfirm   *bool   `json:"is_confirm"`
	IsActive    *bool   `json:"is_active"`
}

// RoomListRequest 房间列表查询参数
type RoomListRequest struct {
	PaginationRequest
	OnlyActive bool `form:"only_active"`
}

// RoomResponse 房间信息响应
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description,omitempty"`
	IsConfirm   bool   `json:"is_confirm"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
