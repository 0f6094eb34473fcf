package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	for _, u := range m.users {
		if u.Login == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIntraID(_ context.Context, intraID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.IntraID == intraID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, keyword, role string, banned *bool, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		if banned != nil {
			if *banned && u.BanStatus == model.BanNone {
				continue
			}
			if !*banned && u.BanStatus != model.BanNone {
				continue
			}
		}
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Login < result[j].Login })
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms map[string]*model.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.RoomID == "" {
		room.RoomID = fmt.Sprintf("room-%d", len(m.rooms)+1)
	}
	cp := *room
	m.rooms[room.RoomID] = &cp
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context, onlyActive bool, offset, limit int) ([]model.Room, int64, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if onlyActive && !r.IsActive {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockRoomRepo) ListAll(_ context.Context) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	if _, ok := m.rooms[room.RoomID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *room
	m.rooms[room.RoomID] = &cp
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	return nil
}

// ── Mock ReservationRepository ──

type mockReservationRepo struct {
	reservations map[string]*model.Reservation
	seq          int
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{reservations: make(map[string]*model.Reservation)}
}

func (m *mockReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	if res.ReservationID == "" {
		m.seq++
		res.ReservationID = fmt.Sprintf("res-%d", m.seq)
	}
	cp := *res
	m.reservations[res.ReservationID] = &cp
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := m.reservations[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) List(_ context.Context, filter repository.ReservationFilter, offset, limit int) ([]model.Reservation, int64, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && !r.EndTime.After(*filter.From) {
			continue
		}
		if filter.To != nil && !r.StartTime.Before(*filter.To) {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, int64(len(result)), nil
}

func (m *mockReservationRepo) ListUpcomingByUser(_ context.Context, userID string, from time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.UserID != userID || !r.EndTime.After(from) {
			continue
		}
		if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockReservationRepo) ListAll(_ context.Context) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockReservationRepo) CountOverlapping(_ context.Context, roomID string, start, end time.Time, excludeID string) (int64, error) {
	var count int64
	for _, r := range m.reservations {
		if r.RoomID != roomID || r.ReservationID == excludeID {
			continue
		}
		if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
			continue
		}
		// 半开区间重叠
		if r.StartTime.Before(end) && r.EndTime.After(start) {
			count++
		}
	}
	return count, nil
}

func (m *mockReservationRepo) Update(_ context.Context, res *model.Reservation) error {
	if _, ok := m.reservations[res.ReservationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	res.Version++
	cp := *res
	m.reservations[res.ReservationID] = &cp
	return nil
}

func (m *mockReservationRepo) Delete(_ context.Context, id string) error {
	delete(m.reservations, id)
	return nil
}

func (m *mockReservationRepo) MarkFinishedBefore(_ context.Context, now time.Time) (int64, error) {
	var affected int64
	for _, r := range m.reservations {
		if r.Status == model.ReservationConfirmed && r.EndTime.Before(now) {
			r.Status = model.ReservationFinished
			affected++
		}
	}
	return affected, nil
}

func (m *mockReservationRepo) ListNoShowCandidates(_ context.Context, cutoff time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range m.reservations {
		if r.Status == model.ReservationConfirmed && r.CheckedInAt == nil && !r.IsNoShow && r.StartTime.Before(cutoff) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// ── Mock ClubRepository ──

type mockClubRepo struct {
	clubs   map[string]*model.Club
	members []model.ClubMember
}

func newMockClubRepo() *mockClubRepo {
	return &mockClubRepo{clubs: make(map[string]*model.Club)}
}

func (m *mockClubRepo) Create(_ context.Context, club *model.Club) error {
	if club.ClubID == "" {
		club.ClubID = fmt.Sprintf("club-%d", len(m.clubs)+1)
	}
	cp := *club
	m.clubs[club.ClubID] = &cp
	return nil
}

func (m *mockClubRepo) GetByID(_ context.Context, id string) (*model.Club, error) {
	if c, ok := m.clubs[id]; ok {
		cp := *c
		cp.Members, _ = m.ListMembers(context.Background(), id)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRepo) GetByName(_ context.Context, name string) (*model.Club, error) {
	for _, c := range m.clubs {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRepo) List(_ context.Context, keyword string, onlyActive bool, offset, limit int) ([]model.Club, int64, error) {
	var result []model.Club
	for _, c := range m.clubs {
		if onlyActive && !c.IsActive {
			continue
		}
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

func (m *mockClubRepo) ListAll(_ context.Context) ([]model.Club, error) {
	var result []model.Club
	for _, c := range m.clubs {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClubRepo) Update(_ context.Context, club *model.Club) error {
	if _, ok := m.clubs[club.ClubID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *club
	m.clubs[club.ClubID] = &cp
	return nil
}

func (m *mockClubRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.clubs, id)
	return nil
}

func (m *mockClubRepo) AddMember(_ context.Context, member *model.ClubMember) error {
	if member.ClubMemberID == "" {
		member.ClubMemberID = fmt.Sprintf("cm-%d", len(m.members)+1)
	}
	m.members = append(m.members, *member)
	return nil
}

func (m *mockClubRepo) GetMember(_ context.Context, clubID, userID string) (*model.ClubMember, error) {
	for i := range m.members {
		if m.members[i].ClubID == clubID && m.members[i].UserID == userID {
			cp := m.members[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRepo) ListMembers(_ context.Context, clubID string) ([]model.ClubMember, error) {
	var result []model.ClubMember
	for i := range m.members {
		if m.members[i].ClubID == clubID {
			result = append(result, m.members[i])
		}
	}
	return result, nil
}

func (m *mockClubRepo) UpdateMemberRole(_ context.Context, clubID, userID, role string) error {
	for i := range m.members {
		if m.members[i].ClubID == clubID && m.members[i].UserID == userID {
			m.members[i].Role = role
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockClubRepo) RemoveMember(_ context.Context, clubID, userID string) error {
	for i := range m.members {
		if m.members[i].ClubID == clubID && m.members[i].UserID == userID {
			m.members = append(m.members[:i], m.members[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	logs []model.ActivityLog
}

func newMockActivityLogRepo() *mockActivityLogRepo {
	return &mockActivityLogRepo{}
}

func (m *mockActivityLogRepo) Create(_ context.Context, log *model.ActivityLog) error {
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockActivityLogRepo) List(_ context.Context, filter repository.ActivityLogFilter, offset, limit int) ([]model.ActivityLog, int64, error) {
	var result []model.ActivityLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		if filter.UserID != "" && (l.UserID == nil || *l.UserID != filter.UserID) {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

// ── 聚合辅助 ──

type testRepos struct {
	user        *mockUserRepo
	room        *mockRoomRepo
	reservation *mockReservationRepo
	club        *mockClubRepo
	activity    *mockActivityLogRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		user:        newMockUserRepo(),
		room:        newMockRoomRepo(),
		reservation: newMockReservationRepo(),
		club:        newMockClubRepo(),
		activity:    newMockActivityLogRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:        r.user,
		Room:        r.room,
		Reservation: r.reservation,
		Club:        r.club,
		ActivityLog: r.activity,
	}
}
