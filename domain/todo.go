package domain

import "time"

// Priority of a todo item.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority falls back to MEDIUM for unknown values.
func ParsePriority(raw string) Priority {
	switch Priority(raw) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(raw)
	default:
		return PriorityMedium
	}
}

// Status of a todo item.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus returns false for blank or unknown values so callers can skip
// the status filter instead of failing the request.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusOpen, StatusInProgress, StatusDone:
		return Status(raw), true
	default:
		return "", false
	}
}

// Todo is a privately owned task that can additionally be shared with a set
// of groups. Rows are soft-deleted: DeletedAt marks the row invisible to
// default reads until restored or hard-purged.
type Todo struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	Groups      []Group    `json:"groups,omitempty"`
	Status      Status     `json:"status"`
	Completed   bool       `json:"completed"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Todo) IsDeleted() bool {
	return t != nil && t.DeletedAt != nil
}

// GroupIDs returns the ids of the groups this todo is shared with.
func (t *Todo) GroupIDs() []int64 {
	if t == nil || len(t.Groups) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(t.Groups))
	for _, g := range t.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// AccessibleBy reports whether user may see or mutate this todo: the user
// owns it, or is a direct member of one of its shared groups. Membership is
// an exact id intersection; the group hierarchy is never expanded here, even
// though list queries do expand it. The asymmetry is intentional: a single
// todo shared with a project is only reachable by that project's members,
// while a department-level list filter fans out to every project beneath it.
func (t *Todo) AccessibleBy(user *User) bool {
	if t == nil || user == nil {
		return false
	}
	if t.OwnerID == user.ID {
		return true
	}
	if len(t.Groups) == 0 || len(user.DefaultGroups) == 0 {
		return false
	}
	member := make(map[int64]struct{}, len(user.DefaultGroups))
	for _, g := range user.DefaultGroups {
		member[g.ID] = struct{}{}
	}
	for _, g := range t.Groups {
		if _, ok := member[g.ID]; ok {
			return true
		}
	}
	return false
}
