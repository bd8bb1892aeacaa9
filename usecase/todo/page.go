package todo

import "github.com/teamdo/backend/domain"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest is a zero-based page index plus size.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) normalized() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Page is one slice of a filtered result set. Total counts every row
// matching the filter, not just this slice; Start and End are the 1-based
// display positions of the slice within that total, both zero when the
// result is empty.
type Page struct {
	Items []domain.Todo `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Start int64         `json:"start"`
	End   int64         `json:"end"`
}

func newPage(items []domain.Todo, total int64, req PageRequest) Page {
	page := Page{
		Items: items,
		Total: total,
		Page:  req.Page,
		Size:  req.Size,
	}
	if total == 0 {
		return page
	}
	page.Start = int64(req.Page)*int64(req.Size) + 1
	page.End = page.Start + int64(req.Size) - 1
	if page.End > total {
		page.End = total
	}
	return page
}
