package model

import "time"

// 预约状态
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationFinished  = "finished"
	ReservationCancelled = "cancelled"
)

// ValidReservationStatus 判断是否为合法预约状态
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationFinished, ReservationCancelled:
		return true
	}
	return false
}

// Reservation 预约表 — 对应 reservations
// 用户取消与管理员驳回直接删除行（非软删除），故不嵌入 SoftDeleteModel
type Reservation struct {
	ReservationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reservation_id"`
	RoomID        string    `gorm:"type:uuid;not null"                             json:"room_id"`
	UserID        string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Title         string    `gorm:"type:varchar(100);not null"                     json:"title"`
	Description   string    `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	StartTime     time.Time `gorm:"not null"                                       json:"start_time"`
	EndTime       time.Time `gorm:"not null"                                       json:"end_time"`
	AttendeeCount int       `gorm:"not null;default:1"                             json:"attendee_count"`
	TeamName      string    `gorm:"type:varchar(100)"                              json:"team_name,omitempty"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`

	// 违约追踪字段
	IsNoShow          bool       `gorm:"not null;default:false" json:"is_no_show"`
	NoShowReportedAt  *time.Time `json:"no_show_reported_at,omitempty"`
	NoShowReportCount int        `gorm:"not null;default:0"     json:"no_show_report_count"`
	CheckedInAt       *time.Time `json:"checked_in_at,omitempty"`
	IsLate            bool       `gorm:"not null;default:false" json:"is_late"`

	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Room *Room `gorm:"foreignKey:RoomID;references:RoomID" json:"room,omitempty"`
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }
