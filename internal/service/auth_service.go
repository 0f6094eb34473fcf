package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
	"github.com/42srr/GGS-helper-sub001/pkg/intra"
	"github.com/42srr/GGS-helper-sub001/pkg/jwt"
	"github.com/42srr/GGS-helper-sub001/pkg/redis"
)

// 认证模块错误
var (
	ErrOAuthNotConfigured = errors.New("内网登录未配置")
	ErrStateInvalid       = errors.New("state 无效或已过期")
	ErrLoginFailed        = errors.New("登录名或密码错误")
	ErrRefreshInvalid     = errors.New("refresh token 无效")
)

const oauthStateTTL = 10 * time.Minute

// AuthService 认证服务：内网 OAuth 登录、管理员兜底登录、Token 刷新与注销
type AuthService struct {
	repo        *repository.Repository
	jwtMgr      *jwt.Manager
	rdb         *redis.Client
	intraClient *intra.Client
	logger      *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	intraClient *intra.Client,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		jwtMgr:      jwtMgr,
		rdb:         rdb,
		intraClient: intraClient,
		logger:      logger,
	}
}

// LoginURL 生成内网授权页跳转地址，state 写入 Redis 防重放
func (s *AuthService) LoginURL(ctx context.Context) (*dto.LoginURLResponse, error) {
	if !s.intraClient.Configured() {
		return nil, ErrOAuthNotConfigured
	}

	state := uuid.New().String()
	if err := s.rdb.StoreOAuthState(ctx, state, oauthStateTTL); err != nil {
		return nil, err
	}

	return &dto.LoginURLResponse{AuthURL: s.intraClient.AuthCodeURL(state)}, nil
}

// Callback 处理内网授权回调：校验 state → 换取 Token → 拉取档案 → 本地建档/更新 → 签发 Token 对
func (s *AuthService) Callback(ctx context.Context, code, state string) (*dto.TokenResponse, error) {
	ok, err := s.rdb.ConsumeOAuthState(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStateInvalid
	}

	token, err := s.intraClient.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.intraClient.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.upsertIntraUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("内网登录成功",
		zap.String("login", user.Login),
		zap.String("user_id", user.UserID))

	return s.issueTokens(user)
}

// upsertIntraUser 按 intra_id 建档或刷新档案字段
func (s *AuthService) upsertIntraUser(ctx context.Context, profile *intra.Profile) (*model.User, error) {
	user, err := s.repo.User.GetByIntraID(ctx, profile.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			IntraID:   profile.ID,
			Login:     profile.Login,
			Name:      profile.Displayname,
			Email:     profile.Email,
			AvatarURL: profile.ImageURL,
			Role:      model.RoleMember,
		}
		if user.Name == "" {
			user.Name = profile.Login
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	// 每次登录同步内网侧的档案变化
	user.Login = profile.Login
	user.Email = profile.Email
	user.AvatarURL = profile.ImageURL
	if profile.Displayname != "" {
		user.Name = profile.Displayname
	}
	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminLogin 管理员本地密码登录（内网不可用时的兜底通道）
func (s *AuthService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByLogin(ctx, req.Login)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLoginFailed
	}
	if err != nil {
		return nil, err
	}

	if user.Role != model.RoleAdmin || user.PasswordHash == "" {
		return nil, ErrLoginFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrLoginFailed
	}

	s.logger.Info("管理员兜底登录", zap.String("login", user.Login))

	return s.issueTokens(user)
}

// Refresh 用 Refresh Token 换取新 Token 对；旧 Refresh Token 作废（轮换）
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	if claims.TokenType != "refresh" {
		return nil, ErrRefreshInvalid
	}

	blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	// 旧 Refresh Token 立即作废
	if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Logout 注销：Access 与 Refresh 的 JWT ID 均加入黑名单
func (s *AuthService) Logout(ctx context.Context, accessClaims *jwt.Claims, refreshToken string) error {
	if err := s.rdb.BlacklistToken(ctx, accessClaims.ID, time.Until(accessClaims.ExpiresAt.Time)); err != nil {
		return err
	}

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == "refresh" {
			if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
				return err
			}
		}
	}

	return nil
}

// GetCurrentUser 获取当前登录用户的档案
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// issueTokens 签发 Access/Refresh Token 对
func (s *AuthService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Login, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Login, user.Role)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}
