package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// RoomHandler 房间模块 HTTP 处理器
type RoomHandler struct {
	roomSvc     *service.RoomService
	activitySvc *service.ActivityService
}

// NewRoomHandler 创建 RoomHandler
func NewRoomHandler(roomSvc *service.RoomService, activitySvc *service.ActivityService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc, activitySvc: activitySvc}
}

// CreateRoom 创建房间（仅 admin）
// POST /api/v1/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	room, err := h.roomSvc.Create(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"create", "room", room.ID, room.Name, c.ClientIP())

	response.Created(c, room)
}

// ListRooms 房间列表
// GET /api/v1/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var req dto.RoomListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rooms, total, err := h.roomSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, rooms, total, req.GetPage(), req.GetPageSize())
}

// GetRoom 查询单个房间
// GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// UpdateRoom 更新房间（仅 admin）
// PUT /api/v1/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	room, err := h.roomSvc.Update(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// DeleteRoom 删除房间（仅 admin）
// DELETE /api/v1/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.roomSvc.Delete(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		h.handleRoomError(c, err)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"delete", "room", c.Param("id"), "", c.ClientIP())

	response.OK(c, nil)
}

func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 13001, "房间不存在")
	default:
		response.InternalError(c)
	}
}
