package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/config"
	"github.com/42srr/GGS-helper-sub001/internal/api/handler"
	"github.com/42srr/GGS-helper-sub001/internal/api/middleware"
	"github.com/42srr/GGS-helper-sub001/pkg/jwt"
	"github.com/42srr/GGS-helper-sub001/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(8 << 20)) // 8MB，容纳 Excel 导入

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口加限流）
		auth := v1.Group("/auth")
		{
			auth.GET("/login", middleware.RateLimit(rdb, 30, time.Minute), h.Auth.Login)
			auth.GET("/callback", middleware.RateLimit(rdb, 30, time.Minute), h.Auth.Callback)
			auth.POST("/admin-login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.AdminLogin)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RoleAuth("staff", "admin"), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth("staff", "admin"), h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Handler 层鉴权）
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.DeleteUser)
				users.PUT("/:id/role", middleware.RoleAuth("admin"), h.User.AssignRole)
				users.POST("/:id/unban", middleware.RoleAuth("admin"), h.User.UnbanUser)
				users.POST("/import", middleware.RoleAuth("admin"), h.User.ImportUsers)
			}

			// 房间模块
			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Room.ListRooms)
				rooms.GET("/:id", h.Room.GetRoom)
				rooms.POST("", middleware.RoleAuth("admin"), h.Room.CreateRoom)
				rooms.PUT("/:id", middleware.RoleAuth("admin"), h.Room.UpdateRoom)
				rooms.DELETE("/:id", middleware.RoleAuth("admin"), h.Room.DeleteRoom)
			}

			// 预约模块
			reservations := authorized.Group("/reservations")
			{
				reservations.GET("", h.Reservation.ListReservations)
				reservations.POST("", h.Reservation.CreateReservation)
				reservations.GET("/my/calendar", h.Export.MyCalendar)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.PUT("/:id", h.Reservation.UpdateReservation)
				reservations.DELETE("/:id", h.Reservation.CancelReservation)
				reservations.POST("/:id/check-in", h.Reservation.CheckIn)
				reservations.POST("/:id/return", h.Reservation.ReturnEarly)
				reservations.POST("/:id/no-show", h.Reservation.ReportNoShow)
				reservations.POST("/:id/approve", middleware.RoleAuth("staff", "admin"), h.Reservation.ApproveReservation)
				reservations.POST("/:id/reject", middleware.RoleAuth("staff", "admin"), h.Reservation.RejectReservation)
				reservations.POST("/:id/force-cancel", middleware.RoleAuth("admin"), h.Reservation.ForceCancelReservation)
				reservations.PUT("/:id/status", middleware.RoleAuth("admin"), h.Reservation.SetReservationStatus)
			}

			// 社团模块
			clubs := authorized.Group("/clubs")
			{
				clubs.GET("", h.Club.ListClubs)
				clubs.GET("/:id", h.Club.GetClub)
				clubs.POST("", middleware.RoleAuth("admin"), h.Club.CreateClub)
				clubs.PUT("/:id", h.Club.UpdateClub) // admin 或社团管理层（Service 层鉴权）
				clubs.DELETE("/:id", middleware.RoleAuth("admin"), h.Club.DeleteClub)
				clubs.GET("/:id/members", h.Club.ListMembers)
				clubs.POST("/:id/members", h.Club.AddMember)
				clubs.PUT("/:id/members/:userId", h.Club.UpdateMemberRole)
				clubs.DELETE("/:id/members/:userId", h.Club.RemoveMember)
			}

			// 操作日志模块
			authorized.GET("/activity-logs", middleware.RoleAuth("admin"), h.Activity.ListLogs)

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/reservations", middleware.RoleAuth("staff", "admin"), h.Export.ExportReservations)
				export.GET("/users", middleware.RoleAuth("admin"), h.Export.ExportUsers)
			}

			// 运维模块
			admin := authorized.Group("/admin", middleware.RoleAuth("admin"))
			{
				admin.POST("/backup", h.Admin.RunBackup)
				admin.POST("/sweeps/finished", h.Admin.SweepFinished)
				admin.POST("/sweeps/no-shows", h.Admin.SweepNoShows)
			}
		}
	}

	return r
}
