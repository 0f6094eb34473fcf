package dto

// ── 认证模块 DTO ──

// LoginURLResponse 内网授权跳转地址响应
type LoginURLResponse struct {
	AuthURL string `json:"auth_url"`
}

// AdminLoginRequest 管理员本地兜底登录请求（内网不可用时）
type AdminLoginRequest struct {
	Login    string `json:"login"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}
