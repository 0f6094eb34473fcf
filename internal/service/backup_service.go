package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/config"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
)

// BackupService 数据备份服务：将核心表导出为带时间戳的 Excel 工作簿
type BackupService struct {
	repo   *repository.Repository
	cfg    *config.BackupConfig
	logger *zap.Logger
}

// NewBackupService 创建 BackupService 实例
func NewBackupService(repo *repository.Repository, cfg *config.BackupConfig, logger *zap.Logger) *BackupService {
	return &BackupService{repo: repo, cfg: cfg, logger: logger}
}

// Run 执行一次全量备份，返回备份文件路径
func (s *BackupService) Run(ctx context.Context) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeUsersSheet(ctx, f); err != nil {
		return "", fmt.Errorf("备份用户表失败: %w", err)
	}
	if err := s.writeRoomsSheet(ctx, f); err != nil {
		return "", fmt.Errorf("备份房间表失败: %w", err)
	}
	if err := s.writeReservationsSheet(ctx, f); err != nil {
		return "", fmt.Errorf("备份预约表失败: %w", err)
	}
	if err := s.writeClubsSheet(ctx, f); err != nil {
		return "", fmt.Errorf("备份社团表失败: %w", err)
	}
	f.DeleteSheet("Sheet1")

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.Dir, fmt.Sprintf("backup_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}

	s.logger.Info("数据备份完成", zap.String("path", path))
	return path, nil
}

func (s *BackupService) writeUsersSheet(ctx context.Context, f *excelize.File) error {
	users, err := s.repo.User.ListAll(ctx)
	if err != nil {
		return err
	}

	const sheet = "Users"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"user_id", "intra_id", "login", "name", "email", "role",
		"no_show_count", "late_count", "ban_status", "ban_until", "created_at"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i := range users {
		u := &users[i]
		banUntil := ""
		if u.BanUntil != nil {
			banUntil = u.BanUntil.Format(time.RFC3339)
		}
		row := []interface{}{
			u.UserID, u.IntraID, u.Login, u.Name, u.Email, u.Role,
			u.NoShowCount, u.LateCount, u.BanStatus, banUntil,
			u.CreatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) writeRoomsSheet(ctx context.Context, f *excelize.File) error {
	rooms, err := s.repo.Room.ListAll(ctx)
	if err != nil {
		return err
	}

	const sheet = "Rooms"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"room_id", "name", "location", "capacity", "is_confirm", "is_active"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i := range rooms {
		r := &rooms[i]
		row := []interface{}{r.RoomID, r.Name, r.Location, r.Capacity, r.IsConfirm, r.IsActive}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) writeReservationsSheet(ctx context.Context, f *excelize.File) error {
	list, err := s.repo.Reservation.ListAll(ctx)
	if err != nil {
		return err
	}

	const sheet = "Reservations"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"reservation_id", "room_id", "user_id", "title",
		"start_time", "end_time", "status", "is_no_show", "is_late", "checked_in_at"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i := range list {
		res := &list[i]
		checkedIn := ""
		if res.CheckedInAt != nil {
			checkedIn = res.CheckedInAt.Format(time.RFC3339)
		}
		row := []interface{}{
			res.ReservationID, res.RoomID, res.UserID, res.Title,
			res.StartTime.Format(time.RFC3339), res.EndTime.Format(time.RFC3339),
			res.Status, res.IsNoShow, res.IsLate, checkedIn,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) writeClubsSheet(ctx context.Context, f *excelize.File) error {
	clubs, err := s.repo.Club.ListAll(ctx)
	if err != nil {
		return err
	}

	const sheet = "Clubs"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"club_id", "name", "master_user_id", "meeting_days", "is_active"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return err
	}

	for i := range clubs {
		c := &clubs[i]
		days, _ := c.MeetingDays.Value()
		row := []interface{}{c.ClubID, c.Name, c.MasterUserID, days, c.IsActive}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
