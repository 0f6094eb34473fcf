package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc *service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc *service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReservations 导出预约记录 Excel（staff/admin）
// GET /api/v1/export/reservations
func (h *ExportHandler) ExportReservations(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	data, err := h.exportSvc.ExportReservations(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	writeXLSX(c, fmt.Sprintf("reservations_%s.xlsx", time.Now().Format("20060102")), data)
}

// ExportUsers 导出用户 Excel（仅 admin）
// GET /api/v1/export/users
func (h *ExportHandler) ExportUsers(c *gin.Context) {
	data, err := h.exportSvc.ExportUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	writeXLSX(c, fmt.Sprintf("users_%s.xlsx", time.Now().Format("20060102")), data)
}

// MyCalendar 个人预约 iCal 订阅
// GET /api/v1/reservations/my/calendar
func (h *ExportHandler) MyCalendar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	feed, err := h.exportSvc.CalendarFeed(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 12001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=reservations.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// writeXLSX 设置下载响应头并写出 Excel 内容
func writeXLSX(c *gin.Context, filename string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, data)
}
