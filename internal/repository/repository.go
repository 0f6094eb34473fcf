package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Room        RoomRepository
	Reservation ReservationRepository
	Club        ClubRepository
	ActivityLog ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Room:        NewRoomRepo(db),
		Reservation: NewReservationRepo(db),
		Club:        NewClubRepo(db),
		ActivityLog: NewActivityLogRepo(db),
	}
}
