package model

import "time"

// 用户角色
const (
	RoleMember = "member"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// 封禁状态（显式三态，避免用 ban_until 是否为 NULL 区分永久/未封禁）
const (
	BanNone      = "none"
	BanTemporary = "temporary"
	BanPermanent = "permanent"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	IntraID      int64  `gorm:"uniqueIndex"                                    json:"intra_id"`
	Login        string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"login"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	AvatarURL    string `gorm:"type:varchar(500)"                              json:"avatar_url,omitempty"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	PasswordHash string `gorm:"type:varchar(255)"                              json:"-"` // 仅管理员本地兜底登录使用

	// 违约惩罚字段
	NoShowCount  int        `gorm:"not null;default:0"                       json:"no_show_count"`
	LastNoShowAt *time.Time `json:"last_no_show_at,omitempty"`
	LateCount    int        `gorm:"not null;default:0"                       json:"late_count"`
	BanStatus    string     `gorm:"type:varchar(20);not null;default:'none'" json:"ban_status"`
	BanUntil     *time.Time `json:"ban_until,omitempty"` // 仅 temporary 时有值

	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BannedAt 判断用户在 now 时刻是否处于封禁期
// 已到期的临时封禁视为未封禁（解除动作由 Service 层落库）
func (u *User) BannedAt(now time.Time) bool {
	switch u.BanStatus {
	case BanPermanent:
		return true
	case BanTemporary:
		return u.BanUntil != nil && u.BanUntil.After(now)
	default:
		return false
	}
}
