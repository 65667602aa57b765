package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	"github.com/spec-kit/helpdesk-sync/internal/projection"
	"github.com/spec-kit/helpdesk-sync/internal/session"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string              `json:"id"`
	TicketNo    string              `json:"ticket_no"`
	Subject     string              `json:"subject"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	SupportBy   string              `json:"support_by"`
	Date        string              `json:"date"`
	Rating      int                 `json:"rating"`
	CreatedAt   time.Time           `json:"created_at"`
}

// TicketPageResponse is one page of the ticket list.
type TicketPageResponse struct {
	Items        []TicketSummary `json:"items"`
	TotalMatches int             `json:"total_matches"`
	TotalPages   int             `json:"total_pages"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
	From         int             `json:"from"`
	To           int             `json:"to"`
	HasPrev      bool            `json:"has_prev"`
	HasNext      bool            `json:"has_next"`
	Status       ViewStatus      `json:"status"`
}

// ViewStatus tells clients whether a view has data and whether its live
// updates are failing.
type ViewStatus struct {
	Loaded bool         `json:"loaded"`
	Error  *StatusError `json:"error,omitempty"`
}

// StatusError is the short form of a view fault.
type StatusError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DashboardResponse payload.
type DashboardResponse struct {
	UserID     string     `json:"user_id"`
	Initials   string     `json:"initials"`
	Total      int        `json:"total"`
	Solved     int        `json:"solved"`
	Awaiting   int        `json:"awaiting"`
	InProgress int        `json:"in_progress"`
	Status     ViewStatus `json:"status"`
}

// TicketCreatedResponse payload.
type TicketCreatedResponse struct {
	ID       string `json:"id"`
	TicketNo string `json:"ticket_no"`
}

// NewTicketSummary maps a ticket to its response form.
func NewTicketSummary(t domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          t.ID,
		TicketNo:    t.TicketNo,
		Subject:     t.Subject,
		Description: t.Description,
		Status:      t.Status,
		SupportBy:   t.SupportBy,
		Date:        t.Date,
		Rating:      t.Rating,
		CreatedAt:   t.CreatedAt,
	}
}

// NewTicketPageResponse maps a projected page.
func NewTicketPageResponse(page projection.Page, status session.ViewStatus) TicketPageResponse {
	items := make([]TicketSummary, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, NewTicketSummary(t))
	}
	return TicketPageResponse{
		Items:        items,
		TotalMatches: page.TotalMatches,
		TotalPages:   page.TotalPages,
		Page:         page.Page,
		PageSize:     page.PageSize,
		From:         page.From,
		To:           page.To,
		HasPrev:      page.HasPrev,
		HasNext:      page.HasNext,
		Status:       NewViewStatus(status),
	}
}

// NewDashboardResponse maps the dashboard view.
func NewDashboardResponse(d session.Dashboard) DashboardResponse {
	return DashboardResponse{
		UserID:     d.UserID,
		Initials:   d.Initials,
		Total:      d.Summary.Total,
		Solved:     d.Summary.Solved,
		Awaiting:   d.Summary.Awaiting,
		InProgress: d.Summary.InProgress,
		Status:     NewViewStatus(d.Status),
	}
}

// NewViewStatus maps a session view status.
func NewViewStatus(status session.ViewStatus) ViewStatus {
	out := ViewStatus{Loaded: status.Loaded}
	if status.Err != nil {
		domainErr := apperrors.ToDomainError(status.Err)
		out.Error = &StatusError{Code: domainErr.Code, Message: domainErr.Message}
	}
	return out
}
