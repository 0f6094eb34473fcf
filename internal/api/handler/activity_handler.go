package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

// ActivityHandler 操作日志模块 HTTP 处理器
type ActivityHandler struct {
	activitySvc *service.ActivityService
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// ListLogs 操作日志列表（仅 admin）
// GET /api/v1/activity-logs
func (h *ActivityHandler) ListLogs(c *gin.Context) {
	var req dto.ActivityLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.activitySvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}
