package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Room        *RoomHandler
	Reservation *ReservationHandler
	Club        *ClubHandler
	Activity    *ActivityHandler
	Export      *ExportHandler
	Admin       *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth, svc.Activity),
		User:        NewUserHandler(svc.User, svc.Activity),
		Room:        NewRoomHandler(svc.Room, svc.Activity),
		Reservation: NewReservationHandler(svc.Reservation, svc.Activity),
		Club:        NewClubHandler(svc.Club, svc.Activity),
		Activity:    NewActivityHandler(svc.Activity),
		Export:      NewExportHandler(svc.Export),
		Admin:       NewAdminHandler(svc.Backup, svc.Reservation, svc.Activity),
	}
}

// ── 上下文辅助 ──

// currentUserID 从认证中间件注入的上下文中取当前用户 ID
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return userID.(string), true
}

// currentRole 取当前用户角色（未认证时返回空串）
func currentRole(c *gin.Context) string {
	role, exists := c.Get("role")
	if !exists {
		return ""
	}
	return role.(string)
}
