package todo

import (
	"strings"
	"time"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/dedup"
)

// Form carries the validated field values of a create or update request.
// Transport-level binding happens in the API layer; the service only sees
// typed values plus the version the caller last read.
type Form struct {
	Title           string
	Detail          string
	DueDate         *time.Time
	Priority        domain.Priority
	CategoryID      *int64
	GroupIDs        []int64
	Status          domain.Status
	AttachmentNames []string
	Version         int64
}

func (f *Form) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Detail = strings.TrimSpace(f.Detail)
	if f.Priority == "" {
		f.Priority = domain.PriorityMedium
	}
	if f.Status == "" {
		f.Status = domain.StatusOpen
	}
}

func (f *Form) validate() error {
	if f.Title == "" {
		return domain.NewError(domain.ErrCodeInvalid, "title is required")
	}
	if len(f.Title) > 100 {
		return domain.NewError(domain.ErrCodeInvalid, "title must be at most 100 characters")
	}
	if len(f.Detail) > 1000 {
		return domain.NewError(domain.ErrCodeInvalid, "description must be at most 1000 characters")
	}
	if _, ok := domain.ParseStatus(string(f.Status)); !ok {
		return domain.NewError(domain.ErrCodeInvalid, "unknown status: "+string(f.Status))
	}
	return nil
}

// submission flattens the form for fingerprinting.
func (f *Form) submission() dedup.Submission {
	var due string
	if f.DueDate != nil {
		due = f.DueDate.Format("2006-01-02")
	}
	var categoryID int64
	if f.CategoryID != nil {
		categoryID = *f.CategoryID
	}
	return dedup.Submission{
		Title:       f.Title,
		Detail:      f.Detail,
		DueDate:     due,
		Priority:    string(f.Priority),
		Status:      string(f.Status),
		CategoryID:  categoryID,
		GroupIDs:    f.GroupIDs,
		Attachments: f.AttachmentNames,
	}
}
