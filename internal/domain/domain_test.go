package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

func TestFormatTicketNumber(t *testing.T) {
	tests := []struct {
		seq  int
		want string
	}{
		{1, "TKT-0001"},
		{4, "TKT-0004"},
		{42, "TKT-0042"},
		{9999, "TKT-9999"},
		{12345, "TKT-12345"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTicketNumber(tt.seq))
	}
}

func TestNewTicket(t *testing.T) {
	now := time.Date(2025, 3, 7, 14, 30, 0, 0, time.UTC)

	ticket := NewTicket("user-1", 1, "  Printer ", "Jammed", now)

	assert.Equal(t, "TKT-0001", ticket.TicketNo)
	assert.Equal(t, "Printer", ticket.Subject)
	assert.Equal(t, TicketStatusInProgress, ticket.Status)
	assert.Equal(t, "N/A", ticket.SupportBy)
	assert.Equal(t, "07/03/2025", ticket.Date)
	assert.Equal(t, now, ticket.CreatedAt)
	assert.Equal(t, 0, ticket.Rating)
	assert.Equal(t, "user-1", ticket.UserID)
	require.NoError(t, ticket.Validate())
}

func TestTicketValidate(t *testing.T) {
	valid := NewTicket("u", 1, "s", "d", time.Now())

	tests := []struct {
		name   string
		mutate func(*Ticket)
	}{
		{"empty subject", func(t *Ticket) { t.Subject = "   " }},
		{"empty description", func(t *Ticket) { t.Description = "" }},
		{"bad number", func(t *Ticket) { t.TicketNo = "0001" }},
		{"unknown status", func(t *Ticket) { t.Status = "Reopened" }},
		{"rating too high", func(t *Ticket) { t.Rating = 6 }},
		{"missing owner", func(t *Ticket) { t.UserID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := valid
			tt.mutate(&ticket)
			err := ticket.Validate()
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestDefaultProfile(t *testing.T) {
	profile := DefaultProfile("abc123xyz")

	assert.Equal(t, "User_abc123", profile.Username)
	assert.Equal(t, "User", profile.AccessLevel)
	assert.Equal(t, "Basic", profile.ProjectAccessLevel)
	assert.Equal(t, "N/A", profile.Department)
	assert.NotNil(t, profile.Feedback)
	assert.Empty(t, profile.Feedback)
	require.NoError(t, profile.Validate())

	assert.Equal(t, "User_ab", DefaultUsername("ab"))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "BM", Initials(""))
	assert.Equal(t, "AB", Initials("abc123"))
	assert.Equal(t, "X", Initials("x"))
	assert.Equal(t, "ÄÖ", Initials("äöü-123"))
	assert.Equal(t, "User_日本語ユーザ", DefaultUsername("日本語ユーザーid"))
	assert.Equal(t, "User_ab", DefaultUsername("ab"))
}

func TestTicketCheckAcceptsUnknownStatus(t *testing.T) {
	ticket := NewTicket("abc123xyz", 1, "Printer", "Jammed", time.Now())
	ticket.Status = "Escalated"

	assert.Error(t, ticket.Validate())
	assert.NoError(t, ticket.Check())

	ticket.Subject = " "
	assert.Error(t, ticket.Check())

	assert.Error(t, Ticket{Subject: "no number"}.Check())
}

func TestFeedbackEntryValidate(t *testing.T) {
	assert.NoError(t, FeedbackEntry{Rating: 5, Text: "great"}.Validate())
	assert.Error(t, FeedbackEntry{Rating: 0, Text: "great"}.Validate())
	assert.Error(t, FeedbackEntry{Rating: 3, Text: "  "}.Validate())
	assert.Error(t, FeedbackEntry{Rating: 7, Text: "too many stars"}.Validate())
}

func TestProfileUpdateFields(t *testing.T) {
	update := ProfileUpdate{Username: " neo ", Email: "neo@example.com"}

	fields := update.Fields()

	assert.Equal(t, "neo", fields["username"])
	assert.Equal(t, "neo@example.com", fields["email"])
	assert.NotContains(t, fields, "feedback")
	assert.NotContains(t, fields, "department")
	assert.Len(t, fields, 6)

	assert.Error(t, ProfileUpdate{}.Validate())
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "tenants/acme/users/u1/tickets", TicketsPath("acme", "u1"))
	assert.Equal(t, "tenants/acme/users/u1/profile/myProfile", ProfilePath("acme", "u1"))
}
