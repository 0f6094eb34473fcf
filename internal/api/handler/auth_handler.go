package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/intra"
	"github.com/42srr/GGS-helper-sub001/pkg/jwt"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc     *service.AuthService
	activitySvc *service.ActivityService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc *service.AuthService, activitySvc *service.ActivityService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, activitySvc: activitySvc}
}

// Login 获取内网授权跳转地址
// GET /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	result, err := h.authSvc.LoginURL(c.Request.Context())
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Callback 内网授权回调
// GET /api/v1/auth/callback?code=xxx&state=xxx
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.BadRequest(c, 10001, "缺少 code 或 state 参数")
		return
	}

	result, err := h.authSvc.Callback(c.Request.Context(), code, state)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &result.User.ID,
		"login", "user", result.User.ID, "内网登录", c.ClientIP())

	response.OK(c, result)
}

// AdminLogin 管理员本地兜底登录
// POST /api/v1/auth/admin-login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &result.User.ID,
		"admin_login", "user", result.User.ID, "管理员兜底登录", c.ClientIP())

	response.OK(c, result)
}

// RefreshToken 刷新 Token 对
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 注销当前 Token 对
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claimsVal, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return
	}
	claims := claimsVal.(*jwt.Claims)

	// refresh_token 可选，传了则一并作废
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authSvc.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// GetCurrentUser 获取当前登录用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOAuthNotConfigured):
		response.Error(c, http.StatusServiceUnavailable, 11001, "内网登录暂不可用")
	case errors.Is(err, service.ErrStateInvalid):
		response.BadRequest(c, 11002, "state 无效或已过期")
	case errors.Is(err, intra.ErrExchangeFail):
		response.Error(c, http.StatusBadGateway, 11003, "内网授权失败")
	case errors.Is(err, intra.ErrProfileFetch):
		response.Error(c, http.StatusBadGateway, 11004, "获取内网用户信息失败")
	case errors.Is(err, service.ErrLoginFailed):
		response.Unauthorized(c, 11005, "登录名或密码错误")
	case errors.Is(err, service.ErrRefreshInvalid):
		response.Unauthorized(c, 11006, "refresh token 无效")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
