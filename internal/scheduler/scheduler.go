package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/config"
	"github.com/42srr/GGS-helper-sub001/internal/service"
)

// Scheduler 后台任务调度：预约巡检与每日备份
type Scheduler struct {
	inner  gocron.Scheduler
	svc    *service.Service
	cfg    *config.BackupConfig
	logger *zap.Logger
}

// New 创建调度器并注册全部任务
func New(svc *service.Service, cfg *config.BackupConfig, logger *zap.Logger) (*Scheduler, error) {
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{inner: inner, svc: svc, cfg: cfg, logger: logger}
	if err := s.register(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register() error {
	// 每小时：过期预约置为 finished
	if _, err := s.inner.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.sweepFinished),
		gocron.WithName("sweep_finished"),
	); err != nil {
		return err
	}

	// 每 5 分钟：未签到预约落爽约惩罚
	if _, err := s.inner.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(s.sweepNoShows),
		gocron.WithName("sweep_no_shows"),
	); err != nil {
		return err
	}

	// 每日 04:00：全量数据备份
	if s.cfg.Enabled {
		if _, err := s.inner.NewJob(
			gocron.CronJob("0 4 * * *", false),
			gocron.NewTask(s.runBackup),
			gocron.WithName("daily_backup"),
		); err != nil {
			return err
		}
	}

	return nil
}

// Start 启动调度器（非阻塞）
func (s *Scheduler) Start() {
	s.inner.Start()
	s.logger.Info("后台调度器已启动", zap.Bool("backup_enabled", s.cfg.Enabled))
}

// Shutdown 停止调度器，等待运行中的任务结束
func (s *Scheduler) Shutdown() error {
	return s.inner.Shutdown()
}

func (s *Scheduler) sweepFinished() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.svc.Reservation.SweepFinished(ctx); err != nil {
		s.logger.Error("完成巡检执行失败", zap.Error(err))
	}
}

func (s *Scheduler) sweepNoShows() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.svc.Reservation.SweepNoShows(ctx); err != nil {
		s.logger.Error("爽约巡检执行失败", zap.Error(err))
	}
}

func (s *Scheduler) runBackup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.svc.Backup.Run(ctx); err != nil {
		s.logger.Error("每日备份执行失败", zap.Error(err))
	}
}
