package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/42srr/GGS-helper-sub001/internal/dto"
	"github.com/42srr/GGS-helper-sub001/internal/model"
	"github.com/42srr/GGS-helper-sub001/internal/repository"
	"github.com/42srr/GGS-helper-sub001/internal/service"
	"github.com/42srr/GGS-helper-sub001/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 路由参数校验要求 uuid 格式的 ID
const (
	testRoomID = "11111111-1111-1111-1111-111111111111"
	testUserID = "22222222-2222-2222-2222-222222222222"
)

// ═══════════════════════════════════════════════════════════
// 内存 Repository 桩
// ═══════════════════════════════════════════════════════════

type stubUserRepo struct {
	users map[string]*model.User
}

func (s *stubUserRepo) Create(_ context.Context, u *model.User) error {
	s.users[u.UserID] = u
	return nil
}

func (s *stubUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	for _, u := range s.users {
		if u.Login == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) GetByIntraID(_ context.Context, intraID int64) (*model.User, error) {
	for _, u := range s.users {
		if u.IntraID == intraID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) List(_ context.Context, _, _ string, _ *bool, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range s.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (s *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range s.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Login < result[j].Login })
	return result, nil
}

func (s *stubUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := s.users[u.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *u
	s.users[u.UserID] = &cp
	return nil
}

func (s *stubUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(s.users, id)
	return nil
}

type stubRoomRepo struct {
	rooms map[string]*model.Room
}

func (s *stubRoomRepo) Create(_ context.Context, r *model.Room) error {
	if r.RoomID == "" {
		r.RoomID = testRoomID
	}
	s.rooms[r.RoomID] = r
	return nil
}

func (s *stubRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := s.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRoomRepo) List(_ context.Context, _ bool, _, _ int) ([]model.Room, int64, error) {
	var result []model.Room
	for _, r := range s.rooms {
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (s *stubRoomRepo) ListAll(_ context.Context) ([]model.Room, error) {
	var result []model.Room
	for _, r := range s.rooms {
		result = append(result, *r)
	}
	return result, nil
}

func (s *stubRoomRepo) Update(_ context.Context, r *model.Room) error {
	cp := *r
	s.rooms[r.RoomID] = &cp
	return nil
}

func (s *stubRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(s.rooms, id)
	return nil
}

type stubReservationRepo struct {
	reservations map[string]*model.Reservation
	seq          int
}

func (s *stubReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	if res.ReservationID == "" {
		s.seq++
		res.ReservationID = "33333333-3333-3333-3333-33333333333" + string(rune('0'+s.seq))
	}
	cp := *res
	s.reservations[res.ReservationID] = &cp
	return nil
}

func (s *stubReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := s.reservations[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubReservationRepo) List(_ context.Context, _ repository.ReservationFilter, _, _ int) ([]model.Reservation, int64, error) {
	var result []model.Reservation
	for _, r := range s.reservations {
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (s *stubReservationRepo) ListUpcomingByUser(_ context.Context, userID string, from time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID && r.EndTime.After(from) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (s *stubReservationRepo) ListAll(_ context.Context) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range s.reservations {
		result = append(result, *r)
	}
	return result, nil
}

func (s *stubReservationRepo) CountOverlapping(_ context.Context, roomID string, start, end time.Time, excludeID string) (int64, error) {
	var count int64
	for _, r := range s.reservations {
		if r.RoomID != roomID || r.ReservationID == excludeID {
			continue
		}
		if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
			continue
		}
		if r.StartTime.Before(end) && r.EndTime.After(start) {
			count++
		}
	}
	return count, nil
}

func (s *stubReservationRepo) Update(_ context.Context, res *model.Reservation) error {
	if _, ok := s.reservations[res.ReservationID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *res
	s.reservations[res.ReservationID] = &cp
	return nil
}

func (s *stubReservationRepo) Delete(_ context.Context, id string) error {
	delete(s.reservations, id)
	return nil
}

func (s *stubReservationRepo) MarkFinishedBefore(_ context.Context, now time.Time) (int64, error) {
	var affected int64
	for _, r := range s.reservations {
		if r.Status == model.ReservationConfirmed && r.EndTime.Before(now) {
			r.Status = model.ReservationFinished
			affected++
		}
	}
	return affected, nil
}

func (s *stubReservationRepo) ListNoShowCandidates(_ context.Context, cutoff time.Time) ([]model.Reservation, error) {
	var result []model.Reservation
	for _, r := range s.reservations {
		if r.Status == model.ReservationConfirmed && r.CheckedInAt == nil && !r.IsNoShow && r.StartTime.Before(cutoff) {
			result = append(result, *r)
		}
	}
	return result, nil
}

type stubActivityRepo struct {
	logs []model.ActivityLog
}

func (s *stubActivityRepo) Create(_ context.Context, log *model.ActivityLog) error {
	s.logs = append(s.logs, *log)
	return nil
}

func (s *stubActivityRepo) List(_ context.Context, _ repository.ActivityLogFilter, _, _ int) ([]model.ActivityLog, int64, error) {
	return s.logs, int64(len(s.logs)), nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

type handlerEnv struct {
	users        *stubUserRepo
	rooms        *stubRoomRepo
	reservations *stubReservationRepo
	activity     *stubActivityRepo
	repo         *repository.Repository
}

func newHandlerEnv() *handlerEnv {
	env := &handlerEnv{
		users:        &stubUserRepo{users: make(map[string]*model.User)},
		rooms:        &stubRoomRepo{rooms: make(map[string]*model.Room)},
		reservations: &stubReservationRepo{reservations: make(map[string]*model.Reservation)},
		activity:     &stubActivityRepo{},
	}
	env.repo = &repository.Repository{
		User:        env.users,
		Room:        env.rooms,
		Reservation: env.reservations,
		ActivityLog: env.activity,
	}

	// 默认数据：1个激活房间 + 1个普通用户
	env.rooms.rooms[testRoomID] = &model.Room{
		RoomID: testRoomID, Name: "会议室A", Capacity: 8, IsActive: true,
	}
	env.users.users[testUserID] = &model.User{
		UserID: testUserID, Login: "jdoe", Name: "Jane Doe",
		Role: model.RoleMember, BanStatus: model.BanNone,
	}
	return env
}

func (env *handlerEnv) reservationHandler() *ReservationHandler {
	logger := zap.NewNop()
	return NewReservationHandler(
		service.NewReservationService(env.repo, logger),
		service.NewActivityService(env.repo, logger),
	)
}

func (env *handlerEnv) roomHandler() *RoomHandler {
	logger := zap.NewNop()
	return NewRoomHandler(
		service.NewRoomService(env.repo, logger),
		service.NewActivityService(env.repo, logger),
	)
}

func setAuth(c *gin.Context, userID, role string) {
	c.Set("user_id", userID)
	c.Set("login", "jdoe")
	c.Set("role", role)
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// ReservationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReservationHandler_Create_Success(t *testing.T) {
	env := newHandlerEnv()
	h := env.reservationHandler()

	start := time.Now().Add(time.Hour).Truncate(time.Minute)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{
		RoomID:    testRoomID,
		Title:     "团队周会",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", func(c *gin.Context) {
		setAuth(c, testUserID, model.RoleMember)
		h.CreateReservation(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}

	// 成功创建应写一条操作日志
	if len(env.activity.logs) != 1 {
		t.Errorf("期望1条操作日志，实际=%d", len(env.activity.logs))
	} else if env.activity.logs[0].Action != "create" {
		t.Errorf("期望 action=create，实际=%s", env.activity.logs[0].Action)
	}
}

func TestReservationHandler_Create_Unauthenticated(t *testing.T) {
	env := newHandlerEnv()
	h := env.reservationHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", h.CreateReservation) // 未注入认证上下文
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 10002 {
		t.Errorf("expected code 10002, got %d", resp.Code)
	}
}

func TestReservationHandler_Create_BadJSON(t *testing.T) {
	env := newHandlerEnv()
	h := env.reservationHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", func(c *gin.Context) {
		setAuth(c, testUserID, model.RoleMember)
		h.CreateReservation(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 10001 {
		t.Errorf("expected code 10001, got %d", resp.Code)
	}
}

func TestReservationHandler_Create_Banned(t *testing.T) {
	env := newHandlerEnv()
	until := time.Now().Add(24 * time.Hour)
	env.users.users[testUserID].BanStatus = model.BanTemporary
	env.users.users[testUserID].BanUntil = &until
	h := env.reservationHandler()

	start := time.Now().Add(time.Hour)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{
		RoomID:    testRoomID,
		Title:     "团队周会",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", func(c *gin.Context) {
		setAuth(c, testUserID, model.RoleMember)
		h.CreateReservation(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 14006 {
		t.Errorf("expected code 14006, got %d", resp.Code)
	}
}

func TestReservationHandler_Create_Conflict(t *testing.T) {
	env := newHandlerEnv()
	start := time.Now().Add(time.Hour).Truncate(time.Minute)
	env.reservations.reservations["existing"] = &model.Reservation{
		ReservationID: "existing", RoomID: testRoomID, UserID: testUserID,
		StartTime: start, EndTime: start.Add(time.Hour),
		Status: model.ReservationConfirmed,
	}
	h := env.reservationHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reservations", jsonBody(dto.CreateReservationRequest{
		RoomID:    testRoomID,
		Title:     "撞车的会",
		StartTime: start.Add(30 * time.Minute),
		EndTime:   start.Add(90 * time.Minute),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/reservations", func(c *gin.Context) {
		setAuth(c, testUserID, model.RoleMember)
		h.CreateReservation(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 14005 {
		t.Errorf("expected code 14005, got %d", resp.Code)
	}
}

func TestReservationHandler_Get_NotFound(t *testing.T) {
	env := newHandlerEnv()
	h := env.reservationHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/reservations/nope", nil)

	r := gin.New()
	r.GET("/reservations/:id", h.GetReservation)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 14001 {
		t.Errorf("expected code 14001, got %d", resp.Code)
	}
}

func TestReservationHandler_Cancel_NotOwner(t *testing.T) {
	env := newHandlerEnv()
	start := time.Now().Add(time.Hour)
	env.reservations.reservations["res-1"] = &model.Reservation{
		ReservationID: "res-1", RoomID: testRoomID, UserID: testUserID,
		StartTime: start, EndTime: start.Add(time.Hour),
		Status: model.ReservationConfirmed,
	}
	h := env.reservationHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/reservations/res-1", nil)

	r := gin.New()
	r.DELETE("/reservations/:id", func(c *gin.Context) {
		setAuth(c, "other-user", model.RoleMember)
		h.CancelReservation(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 14007 {
		t.Errorf("expected code 14007, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RoomHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRoomHandler_Create_Success(t *testing.T) {
	env := newHandlerEnv()
	h := env.roomHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/rooms", jsonBody(dto.CreateRoomRequest{
		Name:     "新会议室",
		Capacity: 12,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/rooms", func(c *gin.Context) {
		setAuth(c, testUserID, model.RoleAdmin)
		h.CreateRoom(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestRoomHandler_Get_NotFound(t *testing.T) {
	env := newHandlerEnv()
	h := env.roomHandler()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/rooms/nope", nil)

	r := gin.New()
	r.GET("/rooms/:id", h.GetRoom)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Code != 13001 {
		t.Errorf("expected code 13001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AdminHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAdminHandler_SweepFinished(t *testing.T) {
	env := newHandlerEnv()
	past := time.Now().Add(-3 * time.Hour)
	env.reservations.reservations["res-1"] = &model.Reservation{
		ReservationID: "res-1", RoomID: testRoomID, UserID: testUserID,
		StartTime: past, EndTime: past.Add(time.Hour),
		Status: model.ReservationConfirmed,
	}

	logger := zap.NewNop()
	h := NewAdminHandler(nil,
		service.NewReservationService(env.repo, logger),
		service.NewActivityService(env.repo, logger))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/admin/sweeps/finished", nil)

	r := gin.New()
	r.POST("/admin/sweeps/finished", func(c *gin.Context) {
		setAuth(c, testUserID, model.RoleAdmin)
		h.SweepFinished(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int                     `json:"code"`
		Data dto.SweepResultResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Data.Affected != 1 {
		t.Errorf("期望 affected=1，实际=%d", resp.Data.Affected)
	}
	if env.reservations.reservations["res-1"].Status != model.ReservationFinished {
		t.Error("过期预约应置为 finished")
	}
}
