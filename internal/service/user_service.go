package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
)

// 用户模块错误
var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrUserNotBanned  = errors.New("用户未处于封禁状态")
	ErrImportBadFile  = errors.New("导入文件无法解析")
	ErrImportNoHeader = errors.New("导入文件缺少 login 列")
)

var loginPattern = regexp.MustCompile(`^[a-z0-9_-]{2,20}$`)

// UserService 用户服务：档案管理、角色分配、解封与批量导入
type UserService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// List 分页查询用户
func (s *UserService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.Keyword, req.Role, req.Banned, req.Offset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	resps := make([]dto.UserResponse, len(users))
	for i := range users {
		resps[i] = toUserResponse(&users[i])
	}
	return resps, total, nil
}

// Get 查询单个用户
func (s *UserService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// Update 更新用户档案字段（admin 或本人）
func (s *UserService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, operatorID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	user.UpdatedBy = &operatorID

	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// AssignRole 分配角色（仅 admin）
func (s *UserService) AssignRole(ctx context.Context, id, role, operatorID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.UpdatedBy = &operatorID
	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("角色已分配",
		zap.String("user_id", id),
		zap.String("role", role),
		zap.String("operator", operatorID))

	resp := toUserResponse(user)
	return &resp, nil
}

// Unban 解除封禁（临时与永久均可，违约计数清零）
func (s *UserService) Unban(ctx context.Context, id, operatorID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if user.BanStatus == model.BanNone {
		return nil, ErrUserNotBanned
	}

	user.BanStatus = model.BanNone
	user.BanUntil = nil
	user.NoShowCount = 0
	user.LateCount = 0
	user.UpdatedBy = &operatorID
	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("用户已解封",
		zap.String("user_id", id),
		zap.String("operator", operatorID))

	resp := toUserResponse(user)
	return &resp, nil
}

// Delete 软删除用户（仅 admin）
func (s *UserService) Delete(ctx context.Context, id, operatorID string) error {
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.repo.User.Delete(ctx, id, operatorID)
}

// ── Excel 批量导入 ──

type importRow struct {
	row   int
	login string
	name  string
	email string
	role  string
}

// ImportUsers 从 Excel 批量导入用户
// 两阶段处理：先整表校验，再逐行建档；login 已存在的行跳过并计数
func (s *UserService) ImportUsers(ctx context.Context, r io.Reader) (*dto.ImportUserResponse, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrImportBadFile
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, ErrImportBadFile
	}
	if len(rows) < 2 {
		return &dto.ImportUserResponse{}, nil
	}

	cols, err := resolveImportColumns(rows[0])
	if err != nil {
		return nil, err
	}

	// 第一阶段：整表校验
	resp := &dto.ImportUserResponse{Total: len(rows) - 1}
	var valid []importRow
	for i, raw := range rows[1:] {
		rowNum := i + 2 // Excel 行号（含表头）
		row, reason := parseImportRow(raw, cols, rowNum)
		if reason != "" {
			resp.Failures = append(resp.Failures, dto.ImportUserError{Row: rowNum, Reason: reason})
			continue
		}
		valid = append(valid, row)
	}

	// 第二阶段：逐行建档
	for _, row := range valid {
		_, err := s.repo.User.GetByLogin(ctx, row.login)
		if err == nil {
			resp.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		user := &model.User{
			Login: row.login,
			Name:  row.name,
			Email: row.email,
			Role:  row.role,
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			resp.Failures = append(resp.Failures, dto.ImportUserError{Row: row.row, Reason: err.Error()})
			continue
		}
		resp.Created++
	}

	s.logger.Info("用户批量导入完成",
		zap.Int("total", resp.Total),
		zap.Int("created", resp.Created),
		zap.Int("skipped", resp.Skipped),
		zap.Int("failed", len(resp.Failures)))

	return resp, nil
}

// resolveImportColumns 识别表头列位置（列名大小写不敏感，列顺序任意）
func resolveImportColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "login", "intra_login":
			cols["login"] = i
		case "name", "displayname":
			cols["name"] = i
		case "email", "mail":
			cols["email"] = i
		case "role":
			cols["role"] = i
		}
	}
	if _, ok := cols["login"]; !ok {
		return nil, ErrImportNoHeader
	}
	return cols, nil
}

func parseImportRow(raw []string, cols map[string]int, rowNum int) (importRow, string) {
	cell := func(key string) string {
		idx, ok := cols[key]
		if !ok || idx >= len(raw) {
			return ""
		}
		return strings.TrimSpace(raw[idx])
	}

	row := importRow{
		row:   rowNum,
		login: strings.ToLower(cell("login")),
		name:  cell("name"),
		email: cell("email"),
		role:  strings.ToLower(cell("role")),
	}

	if row.login == "" {
		return row, "login 为空"
	}
	if !loginPattern.MatchString(row.login) {
		return row, fmt.Sprintf("login 格式非法: %s", row.login)
	}
	if row.name == "" {
		row.name = row.login
	}
	if row.role == "" {
		row.role = model.RoleMember
	}
	switch row.role {
	case model.RoleMember, model.RoleStaff, model.RoleAdmin:
	default:
		return row, fmt.Sprintf("未知角色: %s", row.role)
	}

	return row, ""
}
