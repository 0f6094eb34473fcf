package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
)

func setupTestClubService() (*ClubService, *testRepos) {
	repos := newTestRepos()
	svc := NewClubService(repos.toRepository(), zap.NewNop())

	repos.user.users["master-1"] = &model.User{UserID: "master-1", Login: "master", Role: model.RoleMember}
	repos.user.users["member-1"] = &model.User{UserID: "member-1", Login: "alice", Role: model.RoleMember}
	repos.user.users["admin-1"] = &model.User{UserID: "admin-1", Login: "root", Role: model.RoleAdmin}
	return svc, repos
}

// seedClub 种一个社团：master-1 为社长且已入成员表
func seedClub(repos *testRepos) string {
	club := &model.Club{
		ClubID: "club-1", Name: "围棋社", MasterUserID: "master-1", IsActive: true,
	}
	repos.club.clubs["club-1"] = club
	repos.club.members = append(repos.club.members, model.ClubMember{
		ClubMemberID: "cm-1", ClubID: "club-1", UserID: "master-1", Role: model.ClubRoleMaster,
	})
	return "club-1"
}

// ════════════════════════════════════════════════════════════
// 社团 CRUD 测试
// ════════════════════════════════════════════════════════════

func TestClubService_Create(t *testing.T) {
	svc, repos := setupTestClubService()

	resp, err := svc.Create(context.Background(), &dto.CreateClubRequest{
		Name:         "围棋社",
		Description:  "每周三活动",
		MasterUserID: "master-1",
		MeetingDays:  []int{3},
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Name != "围棋社" {
		t.Errorf("期望名称=围棋社，实际=%s", resp.Name)
	}
	if !resp.IsActive {
		t.Error("新社团应为激活状态")
	}

	// 社长应自动成为首位成员
	member, err := repos.club.GetMember(context.Background(), resp.ID, "master-1")
	if err != nil {
		t.Fatalf("社长应已入成员表: %v", err)
	}
	if member.Role != model.ClubRoleMaster {
		t.Errorf("期望角色=master，实际=%s", member.Role)
	}
}

func TestClubService_Create_NameTaken(t *testing.T) {
	svc, repos := setupTestClubService()
	seedClub(repos)

	_, err := svc.Create(context.Background(), &dto.CreateClubRequest{
		Name: "围棋社", MasterUserID: "master-1",
	}, "admin-1")
	if !errors.Is(err, ErrClubNameTaken) {
		t.Errorf("期望 ErrClubNameTaken，实际 %v", err)
	}
}

func TestClubService_Create_MasterNotFound(t *testing.T) {
	svc, _ := setupTestClubService()

	_, err := svc.Create(context.Background(), &dto.CreateClubRequest{
		Name: "象棋社", MasterUserID: "nope",
	}, "admin-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}

func TestClubService_Update_Authorization(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)

	desc := "改个简介"
	req := &dto.UpdateClubRequest{Description: &desc}

	// 普通成员（非社团成员）无权限
	if _, err := svc.Update(context.Background(), clubID, req, "member-1", model.RoleMember); !errors.Is(err, ErrNotClubManager) {
		t.Errorf("非管理层应拒绝，实际 %v", err)
	}

	// 社长可改
	if _, err := svc.Update(context.Background(), clubID, req, "master-1", model.RoleMember); err != nil {
		t.Errorf("社长更新应成功: %v", err)
	}

	// 站点 admin 可改
	if _, err := svc.Update(context.Background(), clubID, req, "admin-1", model.RoleAdmin); err != nil {
		t.Errorf("admin 更新应成功: %v", err)
	}

	// 社团 manager 可改
	repos.club.members = append(repos.club.members, model.ClubMember{
		ClubMemberID: "cm-2", ClubID: clubID, UserID: "member-1", Role: model.ClubRoleManager,
	})
	if _, err := svc.Update(context.Background(), clubID, req, "member-1", model.RoleMember); err != nil {
		t.Errorf("社团 manager 更新应成功: %v", err)
	}
}

func TestClubService_Get_WithMembers(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)

	resp, err := svc.Get(context.Background(), clubID)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if len(resp.Members) != 1 {
		t.Errorf("期望1名成员，实际=%d", len(resp.Members))
	}
}

// ════════════════════════════════════════════════════════════
// 成员管理测试
// ════════════════════════════════════════════════════════════

func TestClubService_AddMember(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)

	err := svc.AddMember(context.Background(), clubID,
		&dto.AddClubMemberRequest{UserID: "member-1"}, "master-1", model.RoleMember)
	if err != nil {
		t.Fatalf("AddMember 应成功: %v", err)
	}

	member, err := repos.club.GetMember(context.Background(), clubID, "member-1")
	if err != nil {
		t.Fatalf("成员应已入表: %v", err)
	}
	if member.Role != model.ClubRoleMember {
		t.Errorf("缺省角色应为 member，实际=%s", member.Role)
	}

	// 重复添加
	err = svc.AddMember(context.Background(), clubID,
		&dto.AddClubMemberRequest{UserID: "member-1"}, "master-1", model.RoleMember)
	if !errors.Is(err, ErrMemberExists) {
		t.Errorf("期望 ErrMemberExists，实际 %v", err)
	}
}

func TestClubService_AddMember_UserNotFound(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)

	err := svc.AddMember(context.Background(), clubID,
		&dto.AddClubMemberRequest{UserID: "nope"}, "master-1", model.RoleMember)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}

func TestClubService_UpdateMemberRole(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)
	repos.club.members = append(repos.club.members, model.ClubMember{
		ClubMemberID: "cm-2", ClubID: clubID, UserID: "member-1", Role: model.ClubRoleMember,
	})

	if err := svc.UpdateMemberRole(context.Background(), clubID, "member-1",
		model.ClubRoleManager, "master-1", model.RoleMember); err != nil {
		t.Fatalf("角色变更应成功: %v", err)
	}

	member, _ := repos.club.GetMember(context.Background(), clubID, "member-1")
	if member.Role != model.ClubRoleManager {
		t.Errorf("期望角色=manager，实际=%s", member.Role)
	}
}

func TestClubService_UpdateMemberRole_MasterImmutable(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)
	repos.club.members = append(repos.club.members, model.ClubMember{
		ClubMemberID: "cm-2", ClubID: clubID, UserID: "member-1", Role: model.ClubRoleMember,
	})

	// 社长角色不可经成员接口变更
	err := svc.UpdateMemberRole(context.Background(), clubID, "master-1",
		model.ClubRoleMember, "admin-1", model.RoleAdmin)
	if !errors.Is(err, ErrMasterImmutable) {
		t.Errorf("期望 ErrMasterImmutable，实际 %v", err)
	}

	// 也不可把他人提升为社长
	err = svc.UpdateMemberRole(context.Background(), clubID, "member-1",
		model.ClubRoleMaster, "admin-1", model.RoleAdmin)
	if !errors.Is(err, ErrMasterImmutable) {
		t.Errorf("期望 ErrMasterImmutable，实际 %v", err)
	}
}

func TestClubService_RemoveMember(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)
	repos.club.members = append(repos.club.members, model.ClubMember{
		ClubMemberID: "cm-2", ClubID: clubID, UserID: "member-1", Role: model.ClubRoleMember,
	})

	// 本人可自行退出
	if err := svc.RemoveMember(context.Background(), clubID, "member-1", "member-1", model.RoleMember); err != nil {
		t.Fatalf("本人退出应成功: %v", err)
	}
	if _, err := repos.club.GetMember(context.Background(), clubID, "member-1"); err == nil {
		t.Error("成员应已移除")
	}
}

func TestClubService_RemoveMember_MasterProtected(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)

	err := svc.RemoveMember(context.Background(), clubID, "master-1", "admin-1", model.RoleAdmin)
	if !errors.Is(err, ErrMasterImmutable) {
		t.Errorf("社长不可被移除，实际 %v", err)
	}
}

func TestClubService_RemoveMember_OthersForbidden(t *testing.T) {
	svc, repos := setupTestClubService()
	clubID := seedClub(repos)
	repos.club.members = append(repos.club.members, model.ClubMember{
		ClubMemberID: "cm-2", ClubID: clubID, UserID: "member-1", Role: model.ClubRoleMember,
	})
	repos.user.users["member-2"] = &model.User{UserID: "member-2", Login: "bob", Role: model.RoleMember}

	// 普通成员不可移除他人
	err := svc.RemoveMember(context.Background(), clubID, "member-1", "member-2", model.RoleMember)
	if !errors.Is(err, ErrNotClubManager) {
		t.Errorf("期望 ErrNotClubManager，实际 %v", err)
	}
}
