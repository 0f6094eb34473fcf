package service

import (
	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/config"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
	"github.com/42srr/GGS-helper-sub001/pkg/intra"
	"github.com/42srr/GGS-helper-sub001/pkg/jwt"
	"github.com/42srr/GGS-helper-sub001/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        *AuthService
	User        *UserService
	Room        *RoomService
	Reservation *ReservationService
	Club        *ClubService
	Activity    *ActivityService
	Export      *ExportService
	Backup      *BackupService
}

// NewService 创建 Service 聚合
func NewService(
	repo *repository.Repository,
	cfg *config.Config,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	intraClient *intra.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:        NewAuthService(repo, jwtMgr, rdb, intraClient, logger),
		User:        NewUserService(repo, logger),
		Room:        NewRoomService(repo, logger),
		Reservation: NewReservationService(repo, logger),
		Club:        NewClubService(repo, logger),
		Activity:    NewActivityService(repo, logger),
		Export:      NewExportService(repo, logger),
		Backup:      NewBackupService(repo, &cfg.Backup, logger),
	}
}
