package service

import (
	"time"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
)

// ── 模型到 DTO 的转换 ──

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.UserID,
		IntraID:      u.IntraID,
		Login:        u.Login,
		Name:         u.Name,
		Email:        u.Email,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		NoShowCount:  u.NoShowCount,
		LateCount:    u.LateCount,
		BanStatus:    u.BanStatus,
		BanUntil:     formatTimePtr(u.BanUntil),
		LastNoShowAt: formatTimePtr(u.LastNoShowAt),
		CreatedAt:    formatTime(u.CreatedAt),
	}
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Login: u.Login, Name: u.Name}
}

func toRoomResponse(r *model.Room) dto.RoomResponse {
	return dto.RoomResponse{
		ID:          r.RoomID,
		Name:        r.Name,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Description: r.Description,
		IsConfirm:   r.IsConfirm,
		IsActive:    r.IsActive,
		CreatedAt:   formatTime(r.CreatedAt),
		UpdatedAt:   formatTime(r.UpdatedAt),
	}
}

func toRoomBrief(r *model.Room) *dto.RoomBrief {
	if r == nil {
		return nil
	}
	return &dto.RoomBrief{ID: r.RoomID, Name: r.Name, Location: r.Location}
}

func toReservationResponse(r *model.Reservation) dto.ReservationResponse {
	return dto.ReservationResponse{
		ID:                r.ReservationID,
		Room:              toRoomBrief(r.Room),
		RoomID:            r.RoomID,
		User:              toUserBrief(r.User),
		UserID:            r.UserID,
		Title:             r.Title,
		Description:       r.Description,
		StartTime:         formatTime(r.StartTime),
		EndTime:           formatTime(r.EndTime),
		AttendeeCount:     r.AttendeeCount,
		TeamName:          r.TeamName,
		Status:            r.Status,
		IsNoShow:          r.IsNoShow,
		NoShowReportedAt:  formatTimePtr(r.NoShowReportedAt),
		NoShowReportCount: r.NoShowReportCount,
		CheckedInAt:       formatTimePtr(r.CheckedInAt),
		IsLate:            r.IsLate,
		CreatedAt:         formatTime(r.CreatedAt),
		UpdatedAt:         formatTime(r.UpdatedAt),
	}
}

func toReservationResponses(list []model.Reservation) []dto.ReservationResponse {
	out := make([]dto.ReservationResponse, len(list))
	for i := range list {
		out[i] = toReservationResponse(&list[i])
	}
	return out
}

func toClubResponse(c *model.Club, withMembers bool) dto.ClubResponse {
	resp := dto.ClubResponse{
		ID:          c.ClubID,
		Name:        c.Name,
		Description: c.Description,
		Master:      toUserBrief(c.Master),
		MeetingDays: c.MeetingDays,
		IsActive:    c.IsActive,
		CreatedAt:   formatTime(c.CreatedAt),
	}
	if withMembers {
		resp.Members = make([]dto.ClubMemberResponse, 0, len(c.Members))
		for i := range c.Members {
			resp.Members = append(resp.Members, toClubMemberResponse(&c.Members[i]))
		}
	}
	return resp
}

func toClubMemberResponse(m *model.ClubMember) dto.ClubMemberResponse {
	resp := dto.ClubMemberResponse{
		Role:     m.Role,
		JoinedAt: formatTime(m.JoinedAt),
	}
	if m.User != nil {
		resp.User = *toUserBrief(m.User)
	} else {
		resp.User = dto.UserBrief{ID: m.UserID}
	}
	return resp
}

func toActivityLogResponse(l *model.ActivityLog) dto.ActivityLogResponse {
	return dto.ActivityLogResponse{
		ID:           l.LogID,
		UserID:       l.UserID,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		Detail:       l.Detail,
		ClientIP:     l.ClientIP,
		CreatedAt:    formatTime(l.CreatedAt),
	}
}
