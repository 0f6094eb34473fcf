package model

import "time"

// ActivityLog 操作日志表 — 对应 activity_logs（纯审计日志，只增不改）
type ActivityLog struct {
	LogID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	UserID       *string   `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	Action       string    `gorm:"type:varchar(50);not null"                      json:"action"`
	ResourceType string    `gorm:"type:varchar(50);not null"                      json:"resource_type"`
	ResourceID   string    `gorm:"type:varchar(100)"                              json:"resource_id,omitempty"`
	Detail       string    `gorm:"type:varchar(500)"                              json:"detail,omitempty"`
	ClientIP     string    `gorm:"type:varchar(45)"                               json:"client_ip,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }
