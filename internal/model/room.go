package model

// Room 会议室/活动室表 — 对应 rooms
type Room struct {
	RoomID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Location    string `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Capacity    int    `gorm:"not null;default:0"                             json:"capacity"`
	Description string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	IsConfirm   bool   `gorm:"not null;default:false"                         json:"is_confirm"` // true 时新预约需管理员审批
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }
