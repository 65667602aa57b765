package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sync/internal/api/dto"
	"github.com/spec-kit/helpdesk-sync/internal/auth"
	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/session"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// UserSession is the part of the session the user endpoints use.
type UserSession interface {
	Dashboard() session.Dashboard
	Profile() (domain.Profile, session.ViewStatus)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) error
	SubmitFeedback(ctx context.Context, text string, rating int) error
}

// UsersHandler serves the signed-in user's dashboard and profile.
type UsersHandler struct {
	session UserSession
}

// NewUsersHandler constructs handler.
func NewUsersHandler(sess UserSession) *UsersHandler {
	return &UsersHandler{session: sess}
}

// Me GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewNotReady("")
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		UserID:    identity.UserID,
		Initials:  domain.Initials(identity.UserID),
		Anonymous: identity.Anonymous(),
	}})
}

// Dashboard GET /dashboard.
func (h *UsersHandler) Dashboard(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewDashboardResponse(h.session.Dashboard())})
}

// GetProfile GET /profile.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	profile, status := h.session.Profile()
	return c.JSON(fiber.Map{"data": dto.NewProfileResponse(profile, status)})
}

// UpdateProfile PUT /profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.session.UpdateProfile(c.UserContext(), req.ToDomain()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SubmitFeedback POST /profile/feedback.
func (h *UsersHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.session.SubmitFeedback(c.UserContext(), req.Text, req.Rating); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}
