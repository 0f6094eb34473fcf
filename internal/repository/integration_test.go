//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
	"github.com/42srr/GGS-helper-sub001/pkg/database"
	pkgerrors "github.com/42srr/GGS-helper-sub001/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=ggs password=ggs_password dbname=ggs_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 排他约束（btree_gist EXCLUDE）只能来自迁移脚本，不能靠 AutoMigrate
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取底层 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (user *model.User, room *model.Room, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	nano := time.Now().UnixNano()

	user = &model.User{
		IntraID: nano,
		Login:   fmt.Sprintf("itest%d", nano),
		Name:    "测试用户",
		Email:   fmt.Sprintf("itest%d@student.42.fr", nano),
		Role:    model.RoleMember,
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	room = &model.Room{
		Name:     fmt.Sprintf("测试房间-%d", nano),
		Capacity: 8,
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(room).Error; err != nil {
		t.Fatalf("创建房间失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("room_id = ?", room.RoomID).Delete(&model.Reservation{})
		testDB.Unscoped().Where("room_id = ?", room.RoomID).Delete(&model.Room{})
		testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	}
	return
}

func newReservation(user *model.User, room *model.Room, start time.Time, duration time.Duration) *model.Reservation {
	return &model.Reservation{
		RoomID:    room.RoomID,
		UserID:    user.UserID,
		Title:     "集成测试预约",
		StartTime: start,
		EndTime:   start.Add(duration),
		Status:    model.ReservationConfirmed,
		Version:   1,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 数据库排他约束（同房间时间段重叠）
// ═══════════════════════════════════════════════════════════

func TestReservation_ExclusionConstraint(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	start := time.Now().Add(time.Hour).Truncate(time.Second)

	first := newReservation(user, room, start, time.Hour)
	if err := repo.Reservation.Create(ctx, first); err != nil {
		t.Fatalf("首个预约应成功: %v", err)
	}

	// 部分重叠：应触发 EXCLUDE 约束
	overlap := newReservation(user, room, start.Add(30*time.Minute), time.Hour)
	err := repo.Reservation.Create(ctx, overlap)
	if err != pkgerrors.ErrExclusionConflict {
		t.Errorf("期望 ErrExclusionConflict，得到: %v", err)
	}

	// 首尾相接：半开区间不算重叠
	backToBack := newReservation(user, room, start.Add(time.Hour), time.Hour)
	if err := repo.Reservation.Create(ctx, backToBack); err != nil {
		t.Errorf("首尾相接的预约应成功: %v", err)
	}
}

func TestReservation_ExclusionConstraint_CancelledNotBlocking(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	start := time.Now().Add(time.Hour).Truncate(time.Second)

	cancelled := newReservation(user, room, start, time.Hour)
	cancelled.Status = model.ReservationCancelled
	if err := repo.Reservation.Create(ctx, cancelled); err != nil {
		t.Fatalf("创建已取消预约失败: %v", err)
	}

	// 已取消的预约不占用时间段
	replacement := newReservation(user, room, start, time.Hour)
	if err := repo.Reservation.Create(ctx, replacement); err != nil {
		t.Errorf("已取消预约不应阻塞新预约: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 乐观锁
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Reservation_ConflictDetected(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	res := newReservation(user, room, time.Now().Add(time.Hour).Truncate(time.Second), time.Hour)
	if err := repo.Reservation.Create(ctx, res); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	// 模拟并发：获取两份副本
	copy1, _ := repo.Reservation.GetByID(ctx, res.ReservationID)
	copy2, _ := repo.Reservation.GetByID(ctx, res.ReservationID)

	copy1.Title = "第一次修改"
	if err := repo.Reservation.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	// 第二次更新应失败（version 已过期）
	copy2.Title = "第二次修改"
	err := repo.Reservation.Update(ctx, copy2)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestOptimisticLock_Reservation_VersionIncrement(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	res := newReservation(user, room, time.Now().Add(time.Hour).Truncate(time.Second), time.Hour)
	if err := repo.Reservation.Create(ctx, res); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	if res.Version != 1 {
		t.Errorf("初始 version 应为 1，得到: %d", res.Version)
	}

	for i := 0; i < 3; i++ {
		got, _ := repo.Reservation.GetByID(ctx, res.ReservationID)
		got.AttendeeCount = i + 2
		if err := repo.Reservation.Update(ctx, got); err != nil {
			t.Fatalf("第 %d 次更新失败: %v", i+1, err)
		}
	}

	final, _ := repo.Reservation.GetByID(ctx, res.ReservationID)
	if final.Version != 4 {
		t.Errorf("期望 version=4，得到: %d", final.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 巡检查询
// ═══════════════════════════════════════════════════════════

func TestReservation_MarkFinishedBefore(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	past := newReservation(user, room, now.Add(-3*time.Hour), time.Hour)
	if err := repo.Reservation.Create(ctx, past); err != nil {
		t.Fatalf("创建过期预约失败: %v", err)
	}
	ongoing := newReservation(user, room, now.Add(-30*time.Minute), time.Hour)
	if err := repo.Reservation.Create(ctx, ongoing); err != nil {
		t.Fatalf("创建进行中预约失败: %v", err)
	}

	affected, err := repo.Reservation.MarkFinishedBefore(ctx, now)
	if err != nil {
		t.Fatalf("MarkFinishedBefore 失败: %v", err)
	}
	if affected != 1 {
		t.Errorf("期望处理1条，得到: %d", affected)
	}

	got, _ := repo.Reservation.GetByID(ctx, past.ReservationID)
	if got.Status != model.ReservationFinished {
		t.Errorf("过期预约应置为 finished，得到: %s", got.Status)
	}
	got2, _ := repo.Reservation.GetByID(ctx, ongoing.ReservationID)
	if got2.Status != model.ReservationConfirmed {
		t.Errorf("进行中预约不应变更，得到: %s", got2.Status)
	}
}

func TestReservation_ListNoShowCandidates(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)
	cutoff := now.Add(-30 * time.Minute)

	// 超窗未签到：候选
	stale := newReservation(user, room, now.Add(-45*time.Minute), time.Hour)
	if err := repo.Reservation.Create(ctx, stale); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	// 已签到：非候选
	checked := newReservation(user, room, now.Add(-2*time.Hour), time.Hour)
	checkedIn := now.Add(-2 * time.Hour)
	checked.CheckedInAt = &checkedIn
	if err := repo.Reservation.Create(ctx, checked); err != nil {
		t.Fatalf("创建已签到预约失败: %v", err)
	}

	list, err := repo.Reservation.ListNoShowCandidates(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListNoShowCandidates 失败: %v", err)
	}

	var foundStale, foundChecked bool
	for i := range list {
		switch list[i].ReservationID {
		case stale.ReservationID:
			foundStale = true
		case checked.ReservationID:
			foundChecked = true
		}
	}
	if !foundStale {
		t.Error("超窗未签到的预约应在候选中")
	}
	if foundChecked {
		t.Error("已签到的预约不应在候选中")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 用户软删除与重叠统计
// ═══════════════════════════════════════════════════════════

func TestUser_SoftDelete(t *testing.T) {
	user, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.User.Delete(ctx, user.UserID, user.UserID); err != nil {
		t.Fatalf("软删除失败: %v", err)
	}

	// 常规查询应找不到
	if _, err := repo.User.GetByID(ctx, user.UserID); err == nil {
		t.Fatal("软删除后应查不到记录")
	}

	// Unscoped 查询应能找到，且删除标记已设置
	var found model.User
	if err := testDB.Unscoped().Where("user_id = ?", user.UserID).First(&found).Error; err != nil {
		t.Fatalf("Unscoped 查询应能找到: %v", err)
	}
	if found.DeletedAt.Time.IsZero() {
		t.Error("DeletedAt 应已设置")
	}
	if found.DeletedBy == nil {
		t.Error("DeletedBy 应已设置")
	}
}

func TestReservation_CountOverlapping(t *testing.T) {
	user, room, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	start := time.Now().Add(time.Hour).Truncate(time.Second)

	res := newReservation(user, room, start, time.Hour)
	if err := repo.Reservation.Create(ctx, res); err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	// 部分重叠
	count, err := repo.Reservation.CountOverlapping(ctx, room.RoomID, start.Add(30*time.Minute), start.Add(90*time.Minute), "")
	if err != nil {
		t.Fatalf("CountOverlapping 失败: %v", err)
	}
	if count != 1 {
		t.Errorf("期望重叠数=1，得到: %d", count)
	}

	// 排除自身
	count, err = repo.Reservation.CountOverlapping(ctx, room.RoomID, start, start.Add(time.Hour), res.ReservationID)
	if err != nil {
		t.Fatalf("CountOverlapping 失败: %v", err)
	}
	if count != 0 {
		t.Errorf("排除自身后期望重叠数=0，得到: %d", count)
	}

	// 首尾相接不算重叠
	count, err = repo.Reservation.CountOverlapping(ctx, room.RoomID, start.Add(time.Hour), start.Add(2*time.Hour), "")
	if err != nil {
		t.Fatalf("CountOverlapping 失败: %v", err)
	}
	if count != 0 {
		t.Errorf("首尾相接期望重叠数=0，得到: %d", count)
	}
}
