package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// 导入文件大小上限
const maxImportFileSize = 5 << 20 // 5MB

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc     *service.UserService
	activitySvc *service.ActivityService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc *service.UserService, activitySvc *service.ActivityService) *UserHandler {
	return &UserHandler{userSvc: userSvc, activitySvc: activitySvc}
}

// ListUsers 用户列表（staff/admin）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// GetUser 查询单个用户
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户档案（admin 或本人）
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	targetID := c.Param("id")
	if operatorID != targetID && currentRole(c) != model.RoleAdmin {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), targetID, &req, operatorID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// AssignRole 分配角色（仅 admin）
// PUT /api/v1/users/:id/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.AssignRole(c.Request.Context(), c.Param("id"), req.Role, operatorID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"assign_role", "user", c.Param("id"), "角色变更为 "+req.Role, c.ClientIP())

	response.OK(c, user)
}

// UnbanUser 解除封禁（仅 admin）
// POST /api/v1/users/:id/unban
func (h *UserHandler) UnbanUser(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Unban(c.Request.Context(), c.Param("id"), operatorID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"unban", "user", c.Param("id"), "", c.ClientIP())

	response.OK(c, user)
}

// DeleteUser 删除用户（仅 admin）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		h.handleUserError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"delete", "user", c.Param("id"), "", c.ClientIP())

	response.OK(c, nil)
}

// ImportUsers Excel 批量导入用户（仅 admin）
// POST /api/v1/users/import  (multipart/form-data, file 字段)
func (h *UserHandler) ImportUsers(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}
	if fileHeader.Size > maxImportFileSize {
		response.BadRequest(c, 12002, "导入文件过大")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c)
		return
	}
	defer f.Close()

	result, err := h.userSvc.ImportUsers(c.Request.Context(), f)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"import", "user", "", fileHeader.Filename, c.ClientIP())

	response.OK(c, result)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case errors.Is(err, service.ErrUserNotBanned):
		response.BadRequest(c, 12003, "用户未处于封禁状态")
	case errors.Is(err, service.ErrImportBadFile):
		response.BadRequest(c, 12004, "导入文件无法解析")
	case errors.Is(err, service.ErrImportNoHeader):
		response.BadRequest(c, 12005, "导入文件缺少 login 列")
	default:
		response.InternalError(c)
	}
}
