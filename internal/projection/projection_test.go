package projection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sync/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

func ticketsN(n int) []domain.Ticket {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	out := make([]domain.Ticket, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.NewTicket("u1", i, fmt.Sprintf("Subject %d", i), "desc", base.Add(time.Duration(i)*time.Minute)))
	}
	return out
}

func withStatus(t domain.Ticket, status domain.TicketStatus) domain.Ticket {
	t.Status = status
	return t
}

func TestSummarize(t *testing.T) {
	tickets := ticketsN(6)
	tickets[0] = withStatus(tickets[0], domain.TicketStatusClosed)
	tickets[1] = withStatus(tickets[1], domain.TicketStatusClosed)
	tickets[2] = withStatus(tickets[2], domain.TicketStatusAwaitingApproval)
	tickets[3] = withStatus(tickets[3], domain.TicketStatusOnHold)

	got := Summarize(tickets)
	assert.Equal(t, Summary{Total: 6, Solved: 2, Awaiting: 1, InProgress: 2}, got)
	assert.LessOrEqual(t, got.Solved+got.Awaiting+got.InProgress, got.Total)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestProjectTwentyThreeTickets(t *testing.T) {
	tickets := ticketsN(23)

	first := Project(tickets, Query{PageSize: 10, Page: 1})
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, 23, first.TotalMatches)
	assert.Equal(t, 1, first.From)
	assert.Equal(t, 10, first.To)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last := Project(tickets, Query{PageSize: 10, Page: 3})
	assert.Len(t, last.Items, 3)
	assert.Equal(t, 3, last.TotalPages)
	assert.Equal(t, 21, last.From)
	assert.Equal(t, 23, last.To)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)
}

func TestProjectPagesConcatenateToFilteredList(t *testing.T) {
	tickets := ticketsN(23)
	tickets[4] = withStatus(tickets[4], domain.TicketStatusClosed)
	tickets[9] = withStatus(tickets[9], domain.TicketStatusClosed)

	for _, size := range AllowedPageSizes {
		for _, search := range []string{"", "closed", "subject 1", "TKT-002"} {
			t.Run(fmt.Sprintf("%d/%q", size, search), func(t *testing.T) {
				first := Project(tickets, Query{Search: search, PageSize: size, Page: 1})
				var all []domain.Ticket
				for page := 1; page <= first.TotalPages; page++ {
					p := Project(tickets, Query{Search: search, PageSize: size, Page: page})
					assert.LessOrEqual(t, len(p.Items), size)
					all = append(all, p.Items...)
				}
				want := Filter(tickets, search)
				assert.Equal(t, len(want), first.TotalMatches)
				if len(want) == 0 {
					assert.Empty(t, all)
					assert.Equal(t, 1, first.TotalPages)
				} else {
					assert.Equal(t, want, all)
				}
			})
		}
	}
}

func TestMatches(t *testing.T) {
	ticket := domain.NewTicket("u1", 12, "Printer jammed", "paper", time.Now())
	ticket.SupportBy = "Alice"

	tests := []struct {
		search string
		want   bool
	}{
		{"", true},
		{"tkt-0012", true},
		{"PRINTER", true},
		{"in prog", true},
		{"alice", true},
		{"paper", false},
		{"closed", false},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(ticket, tt.search))
		})
	}
}

func TestProjectEdgeCases(t *testing.T) {
	tickets := ticketsN(5)

	empty := Project(nil, Query{PageSize: 10, Page: 1})
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Zero(t, empty.From)
	assert.Zero(t, empty.To)

	beyond := Project(tickets, Query{PageSize: 5, Page: 4})
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 1, beyond.TotalPages)
	assert.False(t, beyond.HasNext)

	for _, page := range []int{0, -5} {
		before := Project(tickets, Query{PageSize: 10, Page: page})
		assert.Empty(t, before.Items, "page %d", page)
		assert.NotNil(t, before.Items)
		assert.Equal(t, page, before.Page)
		assert.Equal(t, 5, before.TotalMatches)
		assert.Equal(t, 1, before.TotalPages)
		assert.Zero(t, before.From)
		assert.False(t, before.HasPrev)
		assert.False(t, before.HasNext)
	}

	defaulted := Project(ticketsN(15), Query{PageSize: 0, Page: 1})
	assert.Equal(t, DefaultPageSize, defaulted.PageSize)
	assert.Equal(t, 1, defaulted.Page)
	assert.Len(t, defaulted.Items, 10)
}

func TestSortNewestFirst(t *testing.T) {
	tickets := ticketsN(3)
	sorted := SortNewestFirst(tickets)
	require.Len(t, sorted, 3)
	assert.Equal(t, "TKT-0003", sorted[0].TicketNo)
	assert.Equal(t, "TKT-0001", sorted[2].TicketNo)
	assert.Equal(t, "TKT-0001", tickets[0].TicketNo)
}

func TestListState(t *testing.T) {
	s := NewListState(7)
	assert.Equal(t, Query{PageSize: DefaultPageSize, Page: 1}, s.Query())

	s.SetPage(3)
	s.SetSearch("printer")
	assert.Equal(t, 1, s.Query().Page)

	s.SetPage(2)
	s.SetSearch("printer")
	assert.Equal(t, 2, s.Query().Page)

	require.NoError(t, s.SetPageSize(20))
	assert.Equal(t, Query{Search: "printer", PageSize: 20, Page: 1}, s.Query())

	s.SetPage(2)
	require.NoError(t, s.SetPageSize(20))
	assert.Equal(t, 2, s.Query().Page)

	err := s.SetPageSize(15)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, 20, s.Query().PageSize)

	s.SetPage(-1)
	assert.Equal(t, 1, s.Query().Page)
}
