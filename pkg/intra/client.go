package intra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/42srr/GGS-helper-sub001/config"
)

var (
	ErrNotConfigured = errors.New("内网 OAuth 未配置")
	ErrExchangeFail  = errors.New("内网授权码换取 Token 失败")
	ErrProfileFetch  = errors.New("获取内网用户信息失败")
)

// Profile 内网用户档案（/v2/me 响应的必要字段）
type Profile struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	Displayname string `json:"displayname"`
	ImageURL    string `json:"image_url"`
}

// Client 校园内网 OAuth / REST 客户端
//
// 支持双密钥轮换：内网管理台轮换 client secret 时新旧密钥短期并存，
// 换取 Token 先用当前生效密钥，被拒绝（invalid_client）后改用备用密钥重试，
// 成功的密钥持久化到状态文件，进程重启后继续生效。
type Client struct {
	cfg        *config.IntraConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	secrets []string // secrets[0] 为当前生效密钥
}

// secretState 状态文件内容
type secretState struct {
	ActiveSecret string    `json:"active_secret"`
	RotatedAt    time.Time `json:"rotated_at"`
}

// NewClient 创建内网客户端并恢复密钥状态
func NewClient(cfg *config.IntraConfig, logger *zap.Logger) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}

	c.secrets = []string{cfg.Secret}
	if cfg.NextSecret != "" && cfg.NextSecret != cfg.Secret {
		c.secrets = append(c.secrets, cfg.NextSecret)
	}

	// 状态文件中记录的生效密钥优先
	if state, err := loadSecretState(cfg.SecretFile); err == nil && state.ActiveSecret != "" {
		c.promoteSecret(state.ActiveSecret)
	}

	return c
}

// Configured 是否已配置 OAuth 接入
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && len(c.secrets) > 0 && c.secrets[0] != ""
}

// AuthCodeURL 生成内网授权页跳转地址
func (c *Client) AuthCodeURL(state string) string {
	return c.oauthConfig(c.activeSecret()).AuthCodeURL(state)
}

// Exchange 用授权码换取 Access Token
// 依次尝试当前密钥与备用密钥，成功的密钥持久化为生效密钥
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var lastErr error
	for _, secret := range c.snapshotSecrets() {
		token, err := c.oauthConfig(secret).Exchange(ctx, code)
		if err == nil {
			c.markActive(secret)
			return token, nil
		}
		lastErr = err
		if !isInvalidClient(err) {
			// 非密钥问题（如授权码过期）没有重试的意义
			return nil, fmt.Errorf("%w: %v", ErrExchangeFail, err)
		}
		c.logger.Warn("内网密钥被拒绝，尝试备用密钥")
	}

	return nil, fmt.Errorf("%w: %v", ErrExchangeFail, lastErr)
}

// FetchProfile 获取当前 Token 对应的内网用户档案
func (c *Client) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+"/v2/me", nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: 状态码 %d: %s", ErrProfileFetch, resp.StatusCode, string(body))
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}
	if profile.Login == "" {
		return nil, fmt.Errorf("%w: 响应缺少 login 字段", ErrProfileFetch)
	}

	return &profile, nil
}

// ── 内部辅助 ──

func (c *Client) oauthConfig(secret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: secret,
		RedirectURL:  c.cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.cfg.AuthURL,
			TokenURL:  c.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: []string{"public"},
	}
}

func (c *Client) activeSecret() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.secrets) == 0 {
		return ""
	}
	return c.secrets[0]
}

func (c *Client) snapshotSecrets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.secrets))
	copy(out, c.secrets)
	return out
}

// promoteSecret 将指定密钥提升为当前生效密钥（仅内存）
func (c *Client) promoteSecret(secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.secrets {
		if s == secret && i != 0 {
			c.secrets[0], c.secrets[i] = c.secrets[i], c.secrets[0]
			return
		}
	}
}

// markActive 记录成功密钥并持久化状态
func (c *Client) markActive(secret string) {
	if c.activeSecret() == secret {
		return
	}
	c.promoteSecret(secret)
	if err := saveSecretState(c.cfg.SecretFile, &secretState{
		ActiveSecret: secret,
		RotatedAt:    time.Now(),
	}); err != nil {
		c.logger.Warn("持久化内网密钥状态失败", zap.Error(err))
	} else {
		c.logger.Info("内网密钥已轮换并持久化")
	}
}

// isInvalidClient 判断错误是否因 client secret 无效导致
func isInvalidClient(err error) bool {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if rErr.ErrorCode == "invalid_client" {
			return true
		}
		if rErr.Response != nil && rErr.Response.StatusCode == http.StatusUnauthorized {
			return true
		}
		return strings.Contains(string(rErr.Body), "invalid_client")
	}
	return false
}

func loadSecretState(path string) (*secretState, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state secretState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func saveSecretState(path string, state *secretState) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
