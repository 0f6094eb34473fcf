package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// ClubHandler 社团模块 HTTP 处理器
type ClubHandler struct {
	clubSvc     *service.ClubService
	activitySvc *service.ActivityService
}

// NewClubHandler 创建 ClubHandler
func NewClubHandler(clubSvc *service.ClubService, activitySvc *service.ActivityService) *ClubHandler {
	return &ClubHandler{clubSvc: clubSvc, activitySvc: activitySvc}
}

// CreateClub 创建社团（仅 admin）
// POST /api/v1/clubs
func (h *ClubHandler) CreateClub(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	club, err := h.clubSvc.Create(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"create", "club", club.ID, club.Name, c.ClientIP())

	response.Created(c, club)
}

// ListClubs 社团列表
// GET /api/v1/clubs
func (h *ClubHandler) ListClubs(c *gin.Context) {
	var req dto.ClubListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	clubs, total, err := h.clubSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, clubs, total, req.GetPage(), req.GetPageSize())
}

// GetClub 查询社团详情（含成员）
// GET /api/v1/clubs/:id
func (h *ClubHandler) GetClub(c *gin.Context) {
	club, err := h.clubSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, club)
}

// UpdateClub 更新社团（admin 或社团管理层）
// PUT /api/v1/clubs/:id
func (h *ClubHandler) UpdateClub(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	club, err := h.clubSvc.Update(c.Request.Context(), c.Param("id"), &req, operatorID, currentRole(c))
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, club)
}

// DeleteClub 删除社团（仅 admin）
// DELETE /api/v1/clubs/:id
func (h *ClubHandler) DeleteClub(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.clubSvc.Delete(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		h.handleClubError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"delete", "club", c.Param("id"), "", c.ClientIP())

	response.OK(c, nil)
}

// AddMember 添加社团成员（admin 或社团管理层）
// POST /api/v1/clubs/:id/members
func (h *ClubHandler) AddMember(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.AddClubMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.clubSvc.AddMember(c.Request.Context(), c.Param("id"), &req, operatorID, currentRole(c)); err != nil {
		h.handleClubError(c, err)
		return
	}

	response.Created(c, nil)
}

// ListMembers 社团成员列表
// GET /api/v1/clubs/:id/members
func (h *ClubHandler) ListMembers(c *gin.Context) {
	members, err := h.clubSvc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, members)
}

// UpdateMemberRole 变更成员角色（admin 或社团管理层）
// PUT /api/v1/clubs/:id/members/:userId
func (h *ClubHandler) UpdateMemberRole(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=manager member"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.clubSvc.UpdateMemberRole(c.Request.Context(),
		c.Param("id"), c.Param("userId"), req.Role, operatorID, currentRole(c)); err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, nil)
}

// RemoveMember 移除社团成员（admin、社团管理层或本人退出）
// DELETE /api/v1/clubs/:id/members/:userId
func (h *ClubHandler) RemoveMember(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.clubSvc.RemoveMember(c.Request.Context(),
		c.Param("id"), c.Param("userId"), operatorID, currentRole(c)); err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ClubHandler) handleClubError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClubNotFound):
		response.NotFound(c, 15001, "社团不存在")
	case errors.Is(err, service.ErrClubNameTaken):
		response.Conflict(c, 15002, "社团名称已存在")
	case errors.Is(err, service.ErrMemberExists):
		response.Conflict(c, 15003, "该用户已是社团成员")
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 15004, "该用户不是社团成员")
	case errors.Is(err, service.ErrMasterImmutable):
		response.BadRequest(c, 15005, "社长身份不能通过成员接口变更")
	case errors.Is(err, service.ErrNotClubManager):
		response.Forbidden(c, 15006, "无社团管理权限")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		response.InternalError(c)
	}
}
