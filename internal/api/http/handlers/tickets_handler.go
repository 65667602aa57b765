package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sync/internal/api/dto"
	"github.com/spec-kit/helpdesk-sync/internal/projection"
	"github.com/spec-kit/helpdesk-sync/internal/service"
	"github.com/spec-kit/helpdesk-sync/internal/session"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// TicketSession is the part of the session the ticket endpoints use.
type TicketSession interface {
	Tickets(q projection.Query) (projection.Page, session.ViewStatus)
	CreateTicket(ctx context.Context, subject, description string) (*service.TicketRef, error)
}

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	session         TicketSession
	defaultPageSize int
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(sess TicketSession, defaultPageSize int) *TicketsHandler {
	return &TicketsHandler{session: sess, defaultPageSize: defaultPageSize}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ref, err := h.session.CreateTicket(c.UserContext(), req.Subject, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketCreatedResponse{ID: ref.ID, TicketNo: ref.TicketNo}})
}

// ListTickets GET /tickets?search=&page_size=&page=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	state := projection.NewListState(h.defaultPageSize)
	state.SetSearch(c.Query("search"))
	if c.Query("page_size") != "" {
		size := c.QueryInt("page_size", 0)
		if err := state.SetPageSize(size); err != nil {
			return err
		}
	}
	state.SetPage(c.QueryInt("page", 1))

	page, status := h.session.Tickets(state.Query())
	return c.JSON(fiber.Map{"data": dto.NewTicketPageResponse(page, status)})
}
