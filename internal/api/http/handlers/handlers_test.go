package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/policy"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

type mockMaintenanceService struct {
	mock.Mock
}

func (m *mockMaintenanceService) Create(ctx context.Context, actor domain.Actor, payload policy.CreatePayload) (*domain.MaintenanceRequest, error) {
	args := m.Called(ctx, actor, payload)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *mockMaintenanceService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.MaintenanceRequest, error) {
	args := m.Called(ctx, actor, id)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *mockMaintenanceService) List(ctx context.Context, actor domain.Actor, filter service.ListFilter) ([]domain.MaintenanceRequest, error) {
	args := m.Called(ctx, actor, filter)
	items, _ := args.Get(0).([]domain.MaintenanceRequest)
	return items, args.Error(1)
}

func (m *mockMaintenanceService) Update(ctx context.Context, actor domain.Actor, id string, req policy.RequestedPatch) (*domain.MaintenanceRequest, error) {
	args := m.Called(ctx, actor, id, req)
	return requestOrNil(args.Get(0)), args.Error(1)
}

func (m *mockMaintenanceService) Assign(ctx context.Context, actor domain.Actor, id string, req policy.RequestedPatch) (*domain.MaintenanceRequest, error) {
	args := m.Called(ctx, actor, id, req)
	return requestOrNil(args.Get(0)), args.Error(1)
}

type mockTeamService struct {
	mock.Mock
}

func (m *mockTeamService) AddMember(ctx context.Context, actor domain.Actor, teamID, userID string) error {
	return m.Called(ctx, actor, teamID, userID).Error(0)
}

func (m *mockTeamService) RemoveMember(ctx context.Context, actor domain.Actor, teamID, userID string) error {
	return m.Called(ctx, actor, teamID, userID).Error(0)
}

func (m *mockTeamService) TeamsOf(ctx context.Context, actor domain.Actor, userID string) ([]string, error) {
	args := m.Called(ctx, actor, userID)
	teams, _ := args.Get(0).([]string)
	return teams, args.Error(1)
}

func requestOrNil(v any) *domain.MaintenanceRequest {
	if v == nil {
		return nil
	}
	return v.(*domain.MaintenanceRequest)
}

var (
	employee   = domain.Actor{ID: "emp-1", Role: domain.RoleEmployee}
	technician = domain.Actor{ID: "tech-1", Role: domain.RoleTechnician}
	admin      = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

// newApp mounts a route behind a stub principal and an envelope-rendering
// error handler.
func newApp(actor *domain.Actor, method, path string, handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			body := fiber.Map{"code": de.Code, "message": de.Message}
			if de.Details != nil {
				body["details"] = de.Details
			}
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": body})
		},
	})
	app.Add(method, path, func(c *fiber.Ctx) error {
		if actor != nil {
			auth.SetPrincipal(c, &auth.Principal{User: &domain.User{ID: actor.ID, Role: actor.Role}, Actor: *actor})
		}
		return c.Next()
	}, handler)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func sampleRequest() *domain.MaintenanceRequest {
	eq := "eq-1"
	return &domain.MaintenanceRequest{
		ID:             "req-1",
		Subject:        "Pump noise",
		MaintenanceFor: domain.MaintenanceForEquipment,
		EquipmentID:    &eq,
		Status:         domain.StatusNew,
		CreatedByID:    employee.ID,
	}
}

func TestMaintenanceRequestsHandler_Create(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&employee, http.MethodPost, "/requests", h.Create)

	svc.On("Create", mock.Anything, employee, mock.MatchedBy(func(p policy.CreatePayload) bool {
		return p.Subject == "Pump noise" && p.MaintenanceFor == domain.MaintenanceForEquipment && *p.EquipmentID == "eq-1"
	})).Return(sampleRequest(), nil)

	resp, body := doJSON(t, app, http.MethodPost, "/requests",
		`{"subject":"Pump noise","maintenanceFor":"EQUIPMENT","equipmentId":"eq-1","maintenanceType":"CORRECTIVE","categoryId":"c","priority":"LOW"}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "req-1", data["id"])
	assert.Equal(t, "NEW", data["status"])
	svc.AssertExpectations(t)
}

func TestMaintenanceRequestsHandler_CreateMalformedBody(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&employee, http.MethodPost, "/requests", h.Create)

	resp, body := doJSON(t, app, http.MethodPost, "/requests", `{"subject":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.CodeValidation, body["error"].(map[string]any)["code"])
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestMaintenanceRequestsHandler_RequiresPrincipal(t *testing.T) {
	h := NewMaintenanceRequestsHandler(new(mockMaintenanceService))
	app := newApp(nil, http.MethodGet, "/requests/:id", h.Get)

	resp, _ := doJSON(t, app, http.MethodGet, "/requests/req-1", "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMaintenanceRequestsHandler_GetForbidden(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&technician, http.MethodGet, "/requests/:id", h.Get)

	svc.On("Get", mock.Anything, technician, "req-1").Return(nil, apperrors.NewForbidden("Forbidden", nil))

	resp, body := doJSON(t, app, http.MethodGet, "/requests/req-1", "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body["error"].(map[string]any)["message"])
}

func TestMaintenanceRequestsHandler_List(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&admin, http.MethodGet, "/requests", h.List)

	want := service.ListFilter{
		Statuses: []domain.RequestStatus{domain.StatusNew, domain.StatusAssigned},
		Page:     2,
		PageSize: 5,
	}
	svc.On("List", mock.Anything, admin, want).Return([]domain.MaintenanceRequest{*sampleRequest()}, nil)

	resp, body := doJSON(t, app, http.MethodGet, "/requests?status=new,ASSIGNED&page=2&page_size=5", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)
	svc.AssertExpectations(t)
}

func TestMaintenanceRequestsHandler_ListReportsEffectivePageSize(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&admin, http.MethodGet, "/requests", h.List)

	svc.On("List", mock.Anything, admin, service.ListFilter{Page: 1, PageSize: 500}).
		Return([]domain.MaintenanceRequest{}, nil)

	resp, body := doJSON(t, app, http.MethodGet, "/requests?page_size=500", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["page"])
	assert.EqualValues(t, 100, meta["page_size"])
	svc.AssertExpectations(t)
}

func TestMaintenanceRequestsHandler_UpdateKeepsNulls(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&admin, http.MethodPatch, "/requests/:id", h.Update)

	svc.On("Update", mock.Anything, admin, "req-1", mock.MatchedBy(func(p policy.RequestedPatch) bool {
		return p.TeamID.Present && p.TeamID.Null && !p.AssignedToID.Present && p.Status.Value == domain.StatusCompleted
	})).Return(sampleRequest(), nil)

	resp, _ := doJSON(t, app, http.MethodPatch, "/requests/req-1", `{"teamId":null,"status":"COMPLETED"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestMaintenanceRequestsHandler_UpdateInvalidDate(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&technician, http.MethodPatch, "/requests/:id", h.Update)

	resp, _ := doJSON(t, app, http.MethodPatch, "/requests/req-1", `{"scheduledDate":"soon"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMaintenanceRequestsHandler_AssignDenied(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&technician, http.MethodPatch, "/requests/:id/assign", h.Assign)

	denial := apperrors.NewForbidden("Request already assigned to another technician",
		map[string]any{"reason": string(policy.ReasonAssignedToOther)})
	svc.On("Assign", mock.Anything, technician, "req-1", mock.MatchedBy(func(p policy.RequestedPatch) bool {
		return p.AssignToSelf.Set() && p.AssignToSelf.Value
	})).Return(nil, denial)

	resp, body := doJSON(t, app, http.MethodPatch, "/requests/req-1/assign", `{"assignToSelf":true}`)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "AssignedToOther", details["reason"])
}

func TestMaintenanceRequestsHandler_InternalErrorIsGeneric(t *testing.T) {
	svc := new(mockMaintenanceService)
	h := NewMaintenanceRequestsHandler(svc)
	app := newApp(&admin, http.MethodGet, "/requests/:id", h.Get)

	svc.On("Get", mock.Anything, admin, "req-1").Return(nil, errors.New("pq: relation missing"))

	resp, body := doJSON(t, app, http.MethodGet, "/requests/req-1", "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"].(map[string]any)["message"])
}

func TestTeamMembersHandler(t *testing.T) {
	svc := new(mockTeamService)
	h := NewTeamMembersHandler(svc)

	svc.On("AddMember", mock.Anything, admin, "team-a", "tech-1").Return(nil)
	svc.On("RemoveMember", mock.Anything, admin, "team-a", "tech-1").Return(nil)
	svc.On("TeamsOf", mock.Anything, technician, "tech-1").Return([]string{"team-a"}, nil)

	resp, body := doJSON(t, newApp(&admin, http.MethodPut, "/teams/:teamId/members/:userId", h.Add),
		http.MethodPut, "/teams/team-a/members/tech-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]any)["member"])

	resp, _ = doJSON(t, newApp(&admin, http.MethodDelete, "/teams/:teamId/members/:userId", h.Remove),
		http.MethodDelete, "/teams/team-a/members/tech-1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, newApp(&technician, http.MethodGet, "/users/:userId/teams", h.ListForUser),
		http.MethodGet, "/users/me/teams", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"team-a"}, body["data"].(map[string]any)["teamIds"])

	svc.AssertExpectations(t)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	ready := NewHealthHandler("maintenance-service", "test", stubPinger{}, stubPinger{})
	resp, body := doJSON(t, newApp(nil, http.MethodGet, "/ready", ready.Ready), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])

	degraded := NewHealthHandler("maintenance-service", "test", stubPinger{}, stubPinger{err: errors.New("refused")})
	resp, _ = doJSON(t, newApp(nil, http.MethodGet, "/ready", degraded.Ready), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body = doJSON(t, newApp(nil, http.MethodGet, "/live", degraded.Live), http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])
}
