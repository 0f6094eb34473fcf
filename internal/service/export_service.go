package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
)

// ExportService 数据导出服务：Excel 报表与 iCal 日历订阅
type ExportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) *ExportService {
	return &ExportService{repo: repo, logger: logger}
}

// ExportReservations 按条件导出预约记录为 Excel
func (s *ExportService) ExportReservations(ctx context.Context, req *dto.ReservationListRequest) ([]byte, error) {
	filter := repository.ReservationFilter{
		RoomID: req.RoomID,
		UserID: req.UserID,
		Status: req.Status,
		From:   req.From,
		To:     req.To,
	}
	// 导出不分页，上限一次取回
	list, _, err := s.repo.Reservation.List(ctx, filter, 0, 10000)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reservations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "房间", "预约人", "标题", "开始时间", "结束时间", "人数", "状态", "爽约", "迟到", "签到时间"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return nil, err
	}

	for i := range list {
		res := &list[i]
		roomName, userLogin := res.RoomID, res.UserID
		if res.Room != nil {
			roomName = res.Room.Name
		}
		if res.User != nil {
			userLogin = res.User.Login
		}
		checkedIn := ""
		if res.CheckedInAt != nil {
			checkedIn = res.CheckedInAt.Format("2006-01-02 15:04")
		}
		row := []interface{}{
			res.ReservationID,
			roomName,
			userLogin,
			res.Title,
			res.StartTime.Format("2006-01-02 15:04"),
			res.EndTime.Format("2006-01-02 15:04"),
			res.AttendeeCount,
			res.Status,
			boolMark(res.IsNoShow),
			boolMark(res.IsLate),
			checkedIn,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	s.logger.Info("预约记录已导出", zap.Int("count", len(list)))
	return buf.Bytes(), nil
}

// ExportUsers 导出全量用户为 Excel（仅 admin）
func (s *ExportService) ExportUsers(ctx context.Context) ([]byte, error) {
	users, err := s.repo.User.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Users"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"login", "name", "email", "role", "爽约次数", "迟到次数", "封禁状态", "封禁截止"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return nil, err
	}

	for i := range users {
		u := &users[i]
		banUntil := ""
		if u.BanUntil != nil {
			banUntil = u.BanUntil.Format("2006-01-02 15:04")
		}
		row := []interface{}{
			u.Login, u.Name, u.Email, u.Role,
			u.NoShowCount, u.LateCount, u.BanStatus, banUntil,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CalendarFeed 生成用户个人预约的 iCal 订阅内容（未来的 pending/confirmed 预约）
func (s *ExportService) CalendarFeed(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	list, err := s.repo.Reservation.ListUpcomingByUser(ctx, userID, time.Now())
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ggs-helper//reservations//KO")
	cal.SetName(fmt.Sprintf("%s 的预约", user.Login))

	for i := range list {
		res := &list[i]
		event := cal.AddEvent(res.ReservationID + "@ggs-helper")
		event.SetCreatedTime(res.CreatedAt)
		event.SetDtStampTime(res.UpdatedAt)
		event.SetStartAt(res.StartTime)
		event.SetEndAt(res.EndTime)
		event.SetSummary(res.Title)
		if res.Description != "" {
			event.SetDescription(res.Description)
		}
		if res.Room != nil {
			event.SetLocation(res.Room.Name)
		}
		if res.Status == model.ReservationPending {
			event.SetStatus(ics.ObjectStatusTentative)
		} else {
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	return cal.Serialize(), nil
}

// ── 内部辅助 ──

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return f.SetSheetRow(sheet, "A1", &row)
}

func boolMark(b bool) string {
	if b {
		return "Y"
	}
	return ""
}
