package projection

import (
	"sort"
	"strings"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
)

// DefaultPageSize is used when a query carries no usable page size.
const DefaultPageSize = 10

// AllowedPageSizes are the entries-per-page choices offered to users.
var AllowedPageSizes = []int{5, 10, 20}

// Query selects one page of a filtered ticket list.
type Query struct {
	Search   string
	PageSize int
	Page     int
}

// Page is one window of a filtered ticket list. From and To are the
// 1-based positions of the first and last item shown, both 0 when the
// page is empty.
type Page struct {
	Items        []domain.Ticket `json:"items"`
	TotalMatches int             `json:"totalMatches"`
	TotalPages   int             `json:"totalPages"`
	Page         int             `json:"page"`
	PageSize     int             `json:"pageSize"`
	From         int             `json:"from"`
	To           int             `json:"to"`
	HasPrev      bool            `json:"hasPrev"`
	HasNext      bool            `json:"hasNext"`
}

// Matches reports whether ticket matches search. An empty search matches
// everything; otherwise any of ticket number, subject, status or support
// name must contain it, ignoring case.
func Matches(ticket domain.Ticket, search string) bool {
	if search == "" {
		return true
	}
	query := strings.ToLower(search)
	fields := []string{ticket.TicketNo, ticket.Subject, string(ticket.Status), ticket.SupportBy}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Filter returns the tickets matching search, preserving order.
func Filter(tickets []domain.Ticket, search string) []domain.Ticket {
	matched := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if Matches(t, search) {
			matched = append(matched, t)
		}
	}
	return matched
}

// Project filters tickets and slices out the requested page. A page outside
// 1..TotalPages yields no items; callers pick the page, Project never
// moves it.
func Project(tickets []domain.Ticket, q Query) Page {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := q.Page

	matched := Filter(tickets, q.Search)
	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	result := Page{
		Items:        []domain.Ticket{},
		TotalMatches: total,
		TotalPages:   totalPages,
		Page:         page,
		PageSize:     pageSize,
		HasPrev:      page > 1,
		HasNext:      page < totalPages,
	}

	if page < 1 {
		result.HasPrev = false
		result.HasNext = false
		return result
	}

	start := (page - 1) * pageSize
	if start >= total {
		return result
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	result.Items = append(result.Items, matched[start:end]...)
	result.From = start + 1
	result.To = end
	return result
}

// SortNewestFirst returns a copy of tickets ordered by creation time,
// newest first.
func SortNewestFirst(tickets []domain.Ticket) []domain.Ticket {
	sorted := append([]domain.Ticket(nil), tickets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}
