package domain

// GroupType classifies a node in the organizational tree.
type GroupType string

const (
	GroupTypeCompany    GroupType = "COMPANY"
	GroupTypeDepartment GroupType = "DEPARTMENT"
	GroupTypeClient     GroupType = "CLIENT"
	GroupTypeProject    GroupType = "PROJECT"
)

// ParseGroupType returns the typed value for a raw string, or false when unknown.
func ParseGroupType(raw string) (GroupType, bool) {
	switch GroupType(raw) {
	case GroupTypeCompany, GroupTypeDepartment, GroupTypeClient, GroupTypeProject:
		return GroupType(raw), true
	default:
		return "", false
	}
}

// Group is an organizational unit. Groups form a forest: COMPANY and CLIENT
// are roots, DEPARTMENT hangs under COMPANY, PROJECT under DEPARTMENT or
// CLIENT. Only PROJECT groups carry shared todos.
type Group struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Type     GroupType `json:"type"`
	ParentID *int64    `json:"parent_id,omitempty"`
	Color    string    `json:"color,omitempty"`
}

func (g *Group) IsProject() bool {
	return g != nil && g.Type == GroupTypeProject
}
