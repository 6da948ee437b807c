package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/auth"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// TeamMembersHandler serves team membership administration.
type TeamMembersHandler struct {
	service TeamServiceInterface
}

// NewTeamMembersHandler constructs handler.
func NewTeamMembersHandler(svc TeamServiceInterface) *TeamMembersHandler {
	return &TeamMembersHandler{service: svc}
}

// Add PUT /api/teams/:teamId/members/:userId.
func (h *TeamMembersHandler) Add(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	teamID, userID := c.Params("teamId"), c.Params("userId")
	if err := h.service.AddMember(c.UserContext(), principal.Actor, teamID, userID); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": dto.TeamMemberResponse{TeamID: teamID, UserID: userID, Member: true}})
}

// Remove DELETE /api/teams/:teamId/members/:userId.
func (h *TeamMembersHandler) Remove(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.RemoveMember(c.UserContext(), principal.Actor, c.Params("teamId"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListForUser GET /api/users/:userId/teams.
func (h *TeamMembersHandler) ListForUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	userID := c.Params("userId")
	if userID == "me" {
		userID = principal.Actor.ID
	}
	teams, err := h.service.TeamsOf(c.UserContext(), principal.Actor, userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TeamsResponse{UserID: userID, TeamIDs: teams}})
}
