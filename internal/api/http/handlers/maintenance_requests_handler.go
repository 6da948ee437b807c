package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/service"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// MaintenanceRequestsHandler serves /api/maintenance/requests.
type MaintenanceRequestsHandler struct {
	service MaintenanceServiceInterface
}

// NewMaintenanceRequestsHandler constructs handler.
func NewMaintenanceRequestsHandler(svc MaintenanceServiceInterface) *MaintenanceRequestsHandler {
	return &MaintenanceRequestsHandler{service: svc}
}

// Create POST /api/maintenance/requests.
func (h *MaintenanceRequestsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateMaintenanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	created, err := h.service.Create(c.UserContext(), principal.Actor, req.ToPayload())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMaintenanceRequestResponse(created)})
}

// List GET /api/maintenance/requests.
func (h *MaintenanceRequestsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query := parseListQuery(c)
	filter := service.ListFilter{
		Statuses: query.Statuses,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	items, err := h.service.List(c.UserContext(), principal.Actor, filter)
	if err != nil {
		return err
	}

	resp := make([]dto.MaintenanceRequestResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewMaintenanceRequestResponse(&items[i]))
	}
	effective := filter.Normalize()
	return c.JSON(fiber.Map{
		"data": resp,
		"meta": fiber.Map{"page": effective.Page, "page_size": effective.PageSize},
	})
}

// Get GET /api/maintenance/requests/:id.
func (h *MaintenanceRequestsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, err := h.service.Get(c.UserContext(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMaintenanceRequestResponse(req)})
}

// Update PATCH /api/maintenance/requests/:id.
func (h *MaintenanceRequestsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var body dto.PatchMaintenanceRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.Update(c.UserContext(), principal.Actor, c.Params("id"), body.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMaintenanceRequestResponse(updated)})
}

// Assign PATCH /api/maintenance/requests/:id/assign.
func (h *MaintenanceRequestsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var body dto.PatchMaintenanceRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.Assign(c.UserContext(), principal.Actor, c.Params("id"), body.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMaintenanceRequestResponse(updated)})
}

func parseListQuery(c *fiber.Ctx) dto.ListQuery {
	query := dto.ListQuery{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Statuses = append(query.Statuses, domain.RequestStatus(strings.ToUpper(part)))
			}
		}
	}
	return query
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
