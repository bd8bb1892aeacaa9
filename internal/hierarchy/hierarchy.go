// Package hierarchy validates and traverses the organizational group tree.
package hierarchy

import (
	"github.com/teamdo/backend/domain"
)

// SentinelGroupID can never match a real row (ids are generated from 1).
// Callers use it to force an empty result set when a group filter expands to
// no projects, instead of silently dropping the filter.
const SentinelGroupID int64 = -1

// ValidateParent enforces the parent-type rules: COMPANY and CLIENT are
// roots, DEPARTMENT hangs under COMPANY, PROJECT under DEPARTMENT or CLIENT.
func ValidateParent(groupType domain.GroupType, parent *domain.Group) error {
	switch groupType {
	case domain.GroupTypeCompany, domain.GroupTypeClient:
		if parent != nil {
			return domain.NewError(domain.ErrCodeInvalid, "group of type "+string(groupType)+" must not have a parent")
		}
		return nil
	case domain.GroupTypeDepartment:
		if parent == nil || parent.Type != domain.GroupTypeCompany {
			return domain.NewError(domain.ErrCodeInvalid, "DEPARTMENT parent must be a COMPANY")
		}
		return nil
	case domain.GroupTypeProject:
		if parent == nil || (parent.Type != domain.GroupTypeDepartment && parent.Type != domain.GroupTypeClient) {
			return domain.NewError(domain.ErrCodeInvalid, "PROJECT parent must be a DEPARTMENT or CLIENT")
		}
		return nil
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unknown group type: "+string(groupType))
	}
}

// WouldCreateCycle reports whether reparenting group id under newParentID
// would close a loop. It walks the ancestor chain of the new parent; hitting
// id means the new parent is currently a descendant of the group being
// moved. The walk keeps a visited set so it terminates even when the stored
// data already contains a cycle.
func WouldCreateCycle(id, newParentID int64, all []domain.Group) bool {
	if id == newParentID {
		return true
	}
	parents := make(map[int64]*int64, len(all))
	for i := range all {
		parents[all[i].ID] = all[i].ParentID
	}
	visited := make(map[int64]struct{})
	current := newParentID
	for {
		if current == id {
			return true
		}
		if _, seen := visited[current]; seen {
			return false
		}
		visited[current] = struct{}{}
		next, ok := parents[current]
		if !ok || next == nil {
			return false
		}
		current = *next
	}
}

// DescendantProjectIDs resolves every PROJECT group reachable by descending
// from root through the parent relation of all. A PROJECT root resolves to
// itself. The result may be empty; callers that build filters from it must
// substitute SentinelGroupID so the empty expansion still filters to zero
// rows.
//
// Nothing in the write path guarantees the stored forest is acyclic, so the
// descent tracks visited ids and refuses to re-enter a node; a corrupted
// cyclic chain degrades to a partial result instead of hanging the request.
func DescendantProjectIDs(root *domain.Group, all []domain.Group) []int64 {
	if root == nil {
		return nil
	}
	if root.Type == domain.GroupTypeProject {
		return []int64{root.ID}
	}

	children := make(map[int64][]*domain.Group, len(all))
	for i := range all {
		g := &all[i]
		if g.ParentID == nil {
			continue
		}
		children[*g.ParentID] = append(children[*g.ParentID], g)
	}

	var projectIDs []int64
	visited := map[int64]struct{}{root.ID: {}}
	stack := []*domain.Group{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range children[current.ID] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			if child.Type == domain.GroupTypeProject {
				projectIDs = append(projectIDs, child.ID)
				continue
			}
			stack = append(stack, child)
		}
	}
	return projectIDs
}
