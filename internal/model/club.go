package model

import "time"

// 社团成员角色
const (
	ClubRoleMaster  = "master"
	ClubRoleManager = "manager"
	ClubRoleMember  = "member"
)

// Club 社团表 — 对应 clubs
type Club struct {
	ClubID       string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"club_id"`
	Name         string   `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Description  string   `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	MasterUserID string   `gorm:"type:uuid;not null"                             json:"master_user_id"`
	MeetingDays  IntArray `gorm:"type:int[]"                                     json:"meeting_days,omitempty"` // 例行活动的星期（1-7）
	IsActive     bool     `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Master  *User        `gorm:"foreignKey:MasterUserID;references:UserID" json:"master,omitempty"`
	Members []ClubMember `gorm:"foreignKey:ClubID"                         json:"members,omitempty"`
}

// TableName 指定表名
func (Club) TableName() string { return "clubs" }

// ClubMember 社团成员表 — 对应 club_members
type ClubMember struct {
	ClubMemberID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"club_member_id"`
	ClubID       string    `gorm:"type:uuid;not null"                             json:"club_id"`
	UserID       string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Role         string    `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	JoinedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"joined_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (ClubMember) TableName() string { return "club_members" }
