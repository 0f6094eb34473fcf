package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// AdminHandler 运维模块 HTTP 处理器：手动备份与手动巡检
type AdminHandler struct {
	backupSvc   *service.BackupService
	resSvc      *service.ReservationService
	activitySvc *service.ActivityService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(backupSvc *service.BackupService, resSvc *service.ReservationService, activitySvc *service.ActivityService) *AdminHandler {
	return &AdminHandler{backupSvc: backupSvc, resSvc: resSvc, activitySvc: activitySvc}
}

// RunBackup 手动触发全量备份（仅 admin）
// POST /api/v1/admin/backup
func (h *AdminHandler) RunBackup(c *gin.Context) {
	operatorID, ok := currentUserID(c)
	if !ok {
		return
	}

	path, err := h.backupSvc.Run(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	h.activitySvc.Record(c.Request.Context(), &operatorID,
		"backup", "system", "", path, c.ClientIP())

	response.OK(c, gin.H{"path": path})
}

// SweepFinished 手动触发完成巡检（仅 admin）
// POST /api/v1/admin/sweeps/finished
func (h *AdminHandler) SweepFinished(c *gin.Context) {
	affected, err := h.resSvc.SweepFinished(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.SweepResultResponse{Affected: affected})
}

// SweepNoShows 手动触发爽约巡检（仅 admin）
// POST /api/v1/admin/sweeps/no-shows
func (h *AdminHandler) SweepNoShows(c *gin.Context) {
	affected, err := h.resSvc.SweepNoShows(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, dto.SweepResultResponse{Affected: affected})
}
