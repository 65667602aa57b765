package projection

import (
	"slices"

	apperrors "github.com/spec-kit/helpdesk-sync/pkg/util/errorutil"
)

// ListState is the search and paging state of a ticket list. Changing the
// search or the page size returns to the first page.
type ListState struct {
	search   string
	pageSize int
	page     int
}

// NewListState starts at page 1 with the given page size, or the default
// when it is not an allowed size.
func NewListState(pageSize int) *ListState {
	if !slices.Contains(AllowedPageSizes, pageSize) {
		pageSize = DefaultPageSize
	}
	return &ListState{pageSize: pageSize, page: 1}
}

// SetSearch changes the filter text and returns to page 1 when it differs.
func (s *ListState) SetSearch(search string) {
	if search == s.search {
		return
	}
	s.search = search
	s.page = 1
}

// SetPageSize switches to one of AllowedPageSizes and returns to page 1.
func (s *ListState) SetPageSize(size int) error {
	if !slices.Contains(AllowedPageSizes, size) {
		return apperrors.NewValidationError("unsupported page size", map[string]any{
			"page_size": size,
			"allowed":   AllowedPageSizes,
		})
	}
	if size != s.pageSize {
		s.pageSize = size
		s.page = 1
	}
	return nil
}

// SetPage moves to page; values below 1 select the first page.
func (s *ListState) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.page = page
}

// Query returns the current state as a projection query.
func (s *ListState) Query() Query {
	return Query{Search: s.search, PageSize: s.pageSize, Page: s.page}
}
