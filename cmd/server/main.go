package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/config"
	"github.com/42srr/GGS-helper-sub001/internal/api/handler"
	"github.com/42srr/GGS-helper-sub001/internal/api/router"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
	"github.com/42srr/GGS-helper-sub001/internal/scheduler"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/database"
	"github.com/42srr/GGS-helper-sub001/pkg/intra"
	"github.com/42srr/GGS-helper-sub001/pkg/jwt"
	applogger "github.com/42srr/GGS-helper-sub001/pkg/logger"
	"github.com/42srr/GGS-helper-sub001/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流功能将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器与内网客户端
	jwtMgr := jwt.NewManager(&cfg.Auth)
	intraClient := intra.NewClient(&cfg.Intra, logger)
	if !intraClient.Configured() {
		logger.Warn("内网 OAuth 未配置，仅管理员兜底登录可用")
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, cfg, jwtMgr, rdb, intraClient, logger)
	h := handler.NewHandler(svc)

	// 7. 启动后台调度器（预约巡检 + 每日备份）
	sched, err := scheduler.New(svc, &cfg.Backup, logger)
	if err != nil {
		logger.Fatal("初始化调度器失败", zap.Error(err))
	}
	sched.Start()

	// 8. 初始化路由并启动 HTTP 服务器（优雅关闭）
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // 导出接口生成 Excel 需要更长写出时间
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 停止后台调度器
	if err := sched.Shutdown(); err != nil {
		logger.Error("调度器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
