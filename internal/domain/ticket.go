package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusInProgress       TicketStatus = "In Progress"
	TicketStatusOnHold           TicketStatus = "On Hold"
	TicketStatusClosed           TicketStatus = "Closed"
	TicketStatusAwaitingApproval TicketStatus = "Awaiting Approval"
)

const (
	// DefaultSupportBy is shown until support staff pick the ticket up.
	DefaultSupportBy = "N/A"

	// DisplayDateLayout renders dates as DD/MM/YYYY.
	DisplayDateLayout = "02/01/2006"

	ticketNumberPrefix = "TKT-"
	maxTicketRating    = 5
)

// Known reports whether the status is one of the named lifecycle states.
func (s TicketStatus) Known() bool {
	switch s {
	case TicketStatusInProgress, TicketStatusOnHold, TicketStatusClosed, TicketStatusAwaitingApproval:
		return true
	}
	return false
}

// Ticket is a support request stored in the owner's ticket collection.
type Ticket struct {
	ID          string       `json:"-"`
	TicketNo    string       `json:"ticketNo"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status"`
	SupportBy   string       `json:"supportBy"`
	Date        string       `json:"date"`
	CreatedAt   time.Time    `json:"createdAt"`
	Rating      int          `json:"rate"`
	UserID      string       `json:"userId"`
}

// SetID assigns the store-assigned identifier after decoding.
func (t *Ticket) SetID(id string) {
	t.ID = id
}

// NewTicket builds a freshly submitted ticket for owner with sequence seq.
func NewTicket(ownerID string, seq int, subject, description string, now time.Time) Ticket {
	return Ticket{
		TicketNo:    FormatTicketNumber(seq),
		Subject:     strings.TrimSpace(subject),
		Description: strings.TrimSpace(description),
		Status:      TicketStatusInProgress,
		SupportBy:   DefaultSupportBy,
		Date:        FormatDisplayDate(now),
		CreatedAt:   now,
		Rating:      0,
		UserID:      ownerID,
	}
}

// Validate enforces the ticket schema before a write.
func (t Ticket) Validate() error {
	if strings.TrimSpace(t.Subject) == "" {
		return apperrors.NewValidationError("please fill in all fields (subject and description)", map[string]any{"field": "subject"})
	}
	if strings.TrimSpace(t.Description) == "" {
		return apperrors.NewValidationError("please fill in all fields (subject and description)", map[string]any{"field": "description"})
	}
	if !strings.HasPrefix(t.TicketNo, ticketNumberPrefix) {
		return apperrors.NewValidationError("invalid ticket number", map[string]any{"field": "ticketNo"})
	}
	if !t.Status.Known() {
		return apperrors.NewValidationError("invalid ticket status", map[string]any{"field": "status"})
	}
	if t.Rating < 0 || t.Rating > maxTicketRating {
		return apperrors.NewValidationError("rating must be between 0 and 5", map[string]any{"field": "rate"})
	}
	if strings.TrimSpace(t.UserID) == "" {
		return apperrors.NewValidationError("ticket owner required", map[string]any{"field": "userId"})
	}
	return nil
}

// Check is the read-side rule for stored tickets. Status is free-form
// here since support staff may set states this client does not name.
func (t Ticket) Check() error {
	if strings.TrimSpace(t.TicketNo) == "" {
		return apperrors.NewValidationError("ticket number missing", map[string]any{"field": "ticketNo"})
	}
	if strings.TrimSpace(t.Subject) == "" {
		return apperrors.NewValidationError("ticket subject missing", map[string]any{"field": "subject"})
	}
	return nil
}

// FormatTicketNumber renders seq as TKT-0001.
func FormatTicketNumber(seq int) string {
	return fmt.Sprintf("%s%04d", ticketNumberPrefix, seq)
}

// FormatDisplayDate renders t as DD/MM/YYYY.
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}
