package domain

import "time"

// Role names recognized by the authorization checks.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an authenticated identity in the platform. DefaultGroups
// is the set of groups the user is a member of; it seeds the share targets
// on create and is the basis of all access checks.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Roles         []string  `json:"roles"`
	Enabled       bool      `json:"enabled"`
	DefaultGroups []Group   `json:"default_groups,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Enabled
}

func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// GroupIDs returns the ids of the user's default groups.
func (u *User) GroupIDs() []int64 {
	if u == nil || len(u.DefaultGroups) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(u.DefaultGroups))
	for _, g := range u.DefaultGroups {
		ids = append(ids, g.ID)
	}
	return ids
}
