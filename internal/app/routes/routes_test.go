package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhub/backoffice/internal/app/controllers"
	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/app/scheduling"
	"github.com/tutorhub/backoffice/internal/middleware"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/auth"
	"github.com/tutorhub/backoffice/internal/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubScheduleService records the last call and returns canned results.
type stubScheduleService struct {
	actor     scheduling.Actor
	createReq dto.CreateScheduleRequest
	selfReq   dto.SelfScheduleRequest
	listQuery dto.ListSchedulesQuery
	page      helpers.Page
	id        int64
	scope     models.Scope
	err       error
}

func (s *stubScheduleService) CreateSchedule(_ context.Context, actor scheduling.Actor, req dto.CreateScheduleRequest) (*dto.CreateScheduleResponse, error) {
	s.actor, s.createReq = actor, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CreateScheduleResponse{ScheduleID: 1, OccurrenceCount: 1}, nil
}

func (s *stubScheduleService) CreateOwnSchedule(_ context.Context, actor scheduling.Actor, req dto.SelfScheduleRequest) (*dto.CreateScheduleResponse, error) {
	s.actor, s.selfReq = actor, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CreateScheduleResponse{ScheduleID: 2, OccurrenceCount: 1}, nil
}

func (s *stubScheduleService) GetSchedule(_ context.Context, actor scheduling.Actor, id int64) (*dto.ScheduleResponse, error) {
	s.actor, s.id = actor, id
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ScheduleResponse{ID: id}, nil
}

func (s *stubScheduleService) ListSchedules(_ context.Context, actor scheduling.Actor, q dto.ListSchedulesQuery, page helpers.Page) (*dto.PaginatedResponse, error) {
	s.actor, s.listQuery, s.page = actor, q, page
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PaginatedResponse{Items: []dto.ScheduleResponse{}}, nil
}

func (s *stubScheduleService) UpdateSchedule(_ context.Context, actor scheduling.Actor, id int64, _ dto.UpdateScheduleRequest, scope models.Scope) (*dto.UpdateScheduleResponse, error) {
	s.actor, s.id, s.scope = actor, id, scope
	if s.err != nil {
		return nil, s.err
	}
	return &dto.UpdateScheduleResponse{UpdatedCount: 1}, nil
}

func (s *stubScheduleService) DeleteSchedule(_ context.Context, actor scheduling.Actor, id int64, scope models.Scope) (*dto.DeleteScheduleResponse, error) {
	s.actor, s.id, s.scope = actor, id, scope
	if s.err != nil {
		return nil, s.err
	}
	return &dto.DeleteScheduleResponse{DeletedCount: 1}, nil
}

func (s *stubScheduleService) CheckCapacity(_ context.Context, actor scheduling.Actor, _ dto.CapacityQuery) (*dto.CapacityResponse, error) {
	s.actor = actor
	return &dto.CapacityResponse{Allowed: true, CurrentCount: 1, MaxCount: 3}, nil
}

func (s *stubScheduleService) RegistrationWindow(context.Context) dto.RegistrationWindowResponse {
	return dto.RegistrationWindowResponse{From: "2025-01-27", To: "2025-02-28", OpenNextMonthDay: 25}
}

func (s *stubScheduleService) ExportCalendar(_ context.Context, actor scheduling.Actor, q dto.ListSchedulesQuery) ([]byte, error) {
	s.actor, s.listQuery = actor, q
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
}

type stubSettingService struct {
	orgID int64
	max   int
}

func (s *stubSettingService) GetCapacitySetting(_ context.Context, orgID int64) (*dto.CapacitySettingResponse, error) {
	s.orgID = orgID
	return &dto.CapacitySettingResponse{OrganizationID: orgID, MaxConcurrentStudents: 3}, nil
}

func (s *stubSettingService) UpdateCapacitySetting(_ context.Context, orgID int64, req dto.UpdateCapacitySettingRequest) (*dto.CapacitySettingResponse, error) {
	s.orgID, s.max = orgID, req.MaxConcurrentStudents
	return &dto.CapacitySettingResponse{OrganizationID: orgID, MaxConcurrentStudents: req.MaxConcurrentStudents}, nil
}

type testServer struct {
	router    *gin.Engine
	schedules *stubScheduleService
	settings  *stubSettingService
	jwt       *auth.JWTService
}

func newTestServer() *testServer {
	ts := &testServer{
		router:    gin.New(),
		schedules: &stubScheduleService{},
		settings:  &stubSettingService{},
		jwt:       auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret", TokenIssuer: "tutorhub.test"}),
	}
	SetupRouter(ts.router,
		controllers.NewScheduleController(ts.schedules),
		controllers.NewSettingController(ts.settings),
		middleware.NewAuthMiddleware(ts.jwt),
	)
	return ts
}

func (ts *testServer) do(t *testing.T, role models.RoleType, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		var studentID int64
		if role == models.RoleStudent {
			studentID = 10
		}
		token, err := ts.jwt.GenerateAccessToken(5, 1, role, studentID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var body struct {
		Error dto.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	w := ts.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleRoutesRequireToken(t *testing.T) {
	ts := newTestServer()
	w := ts.do(t, "", http.MethodGet, "/api/v1/schedules?from=2025-01-01&to=2025-01-31", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSchedule(t *testing.T) {
	ts := newTestServer()
	body := dto.CreateScheduleRequest{StudentID: 10, Date: "2025-02-03", StartTime: "10:00", DurationSlots: 2, Recurring: true}

	w := ts.do(t, models.RoleAdmin, http.MethodPost, "/api/v1/schedules", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, body, ts.schedules.createReq)
	assert.Equal(t, scheduling.Actor{Role: models.RoleAdmin, OrganizationID: 1}, ts.schedules.actor)
}

func TestCreateScheduleAdminOnly(t *testing.T) {
	ts := newTestServer()
	body := dto.CreateScheduleRequest{StudentID: 10, Date: "2025-02-03", StartTime: "10:00", DurationSlots: 1}

	w := ts.do(t, models.RoleStudent, http.MethodPost, "/api/v1/schedules", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateScheduleValidation(t *testing.T) {
	ts := newTestServer()
	body := dto.CreateScheduleRequest{StudentID: 10, Date: "2025-02-30", StartTime: "10:00", DurationSlots: 4}

	w := ts.do(t, models.RoleAdmin, http.MethodPost, "/api/v1/schedules", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, errorCode(t, w))
	assert.Zero(t, ts.schedules.createReq.StudentID, "service must not be called")
}

func TestCreateScheduleRejections(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"capacity", apperrors.NewRejection(apperrors.ErrCapacityExceeded, "full", nil), http.StatusConflict, dto.ErrorCodeCapacityExceeded},
		{"conflict", apperrors.NewRejection(apperrors.ErrStudentConflict, "busy", nil), http.StatusConflict, dto.ErrorCodeStudentConflict},
		{"no end date", apperrors.NewRejection(apperrors.ErrMissingEnrollmentEndDate, "none", nil), http.StatusUnprocessableEntity, dto.ErrorCodeMissingEnrollmentEndDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.schedules.err = tt.err
			body := dto.CreateScheduleRequest{StudentID: 10, Date: "2025-02-03", StartTime: "10:00", DurationSlots: 1}

			w := ts.do(t, models.RoleAdmin, http.MethodPost, "/api/v1/schedules", body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestCreateOwnSchedule(t *testing.T) {
	ts := newTestServer()
	body := dto.SelfScheduleRequest{Date: "2025-02-03", StartTime: "13:30", DurationSlots: 1}

	w := ts.do(t, models.RoleStudent, http.MethodPost, "/api/v1/me/schedules", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(10), ts.schedules.actor.StudentID)
	assert.Equal(t, body, ts.schedules.selfReq)

	w = ts.do(t, models.RoleAdmin, http.MethodPost, "/api/v1/me/schedules", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListSchedules(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleStudent, http.MethodGet, "/api/v1/schedules?from=2025-01-01&to=2025-01-31&page=2&size=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2025-01-01", ts.schedules.listQuery.From)
	assert.Equal(t, "2025-01-31", ts.schedules.listQuery.To)
	assert.Equal(t, helpers.Page{Number: 2, Size: 5}, ts.schedules.page)

	w = ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/schedules?from=2025-01-01&to=2025-01-31&page=0&size=500", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, helpers.Page{Number: 1, Size: helpers.DefaultPageSize}, ts.schedules.page)

	w = ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/schedules?from=2025-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSchedule(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/schedules/42", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), ts.schedules.id)

	w = ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/schedules/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.schedules.err = apperrors.ErrScheduleNotFound
	w = ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/schedules/43", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateScheduleScope(t *testing.T) {
	ts := newTestServer()
	start := "15:00"

	w := ts.do(t, models.RoleAdmin, http.MethodPatch, "/api/v1/schedules/7?scope=future", dto.UpdateScheduleRequest{StartTime: &start})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ScopeFuture, ts.schedules.scope)

	w = ts.do(t, models.RoleAdmin, http.MethodPatch, "/api/v1/schedules/7?scope=all", dto.UpdateScheduleRequest{StartTime: &start})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.schedules.err = apperrors.ErrInvalidScope
	w = ts.do(t, models.RoleAdmin, http.MethodPatch, "/api/v1/schedules/7?scope=future", dto.UpdateScheduleRequest{StartTime: &start})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeResourceInvalid, errorCode(t, w))
}

func TestDeleteSchedule(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleAdmin, http.MethodDelete, "/api/v1/schedules/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScopeSingle, ts.schedules.scope)

	w = ts.do(t, models.RoleAdmin, http.MethodDelete, "/api/v1/schedules/7?scope=future", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScopeFuture, ts.schedules.scope)
}

func TestCancelOwnScheduleIsAlwaysSingle(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleStudent, http.MethodDelete, "/api/v1/me/schedules/9?scope=future", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(9), ts.schedules.id)
	assert.Equal(t, models.ScopeSingle, ts.schedules.scope)

	ts.schedules.err = apperrors.NewRejection(apperrors.ErrPastSchedule, "too late", nil)
	w = ts.do(t, models.RoleStudent, http.MethodDelete, "/api/v1/me/schedules/9", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCheckCapacity(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleStudent, http.MethodGet, "/api/v1/schedules/capacity?date=2025-02-03&startTime=10:00&durationSlots=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data dto.CapacityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Allowed)
	assert.Equal(t, 3, body.Data.MaxCount)
}

func TestRegistrationWindow(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleStudent, http.MethodGet, "/api/v1/me/registration-window", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data dto.RegistrationWindowResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2025-02-28", body.Data.To)
}

func TestExportCalendar(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/schedules/export.ics?from=2025-01-01&to=2025-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedules.ics")
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
}

func TestCapacitySettingRoutes(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, models.RoleAdmin, http.MethodGet, "/api/v1/settings/capacity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), ts.settings.orgID)

	w = ts.do(t, models.RoleAdmin, http.MethodPut, "/api/v1/settings/capacity", dto.UpdateCapacitySettingRequest{MaxConcurrentStudents: 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, ts.settings.max)

	w = ts.do(t, models.RoleAdmin, http.MethodPut, "/api/v1/settings/capacity", dto.UpdateCapacitySettingRequest{MaxConcurrentStudents: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, models.RoleStudent, http.MethodGet, "/api/v1/settings/capacity", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
