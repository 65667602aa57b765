package projection

import "github.com/spec-kit/helpdesk-sync/internal/domain"

// Summary holds the dashboard counts for a ticket snapshot.
type Summary struct {
	Total      int `json:"total"`
	Solved     int `json:"solved"`
	Awaiting   int `json:"awaiting"`
	InProgress int `json:"inProgress"`
}

// Summarize counts tickets by status. Statuses other than Closed, Awaiting
// Approval and In Progress only count toward Total.
func Summarize(tickets []domain.Ticket) Summary {
	summary := Summary{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusClosed:
			summary.Solved++
		case domain.TicketStatusAwaitingApproval:
			summary.Awaiting++
		case domain.TicketStatusInProgress:
			summary.InProgress++
		}
	}
	return summary
}
