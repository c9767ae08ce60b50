package authority

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

// SystemAdminRole administrative paths (SkipStep, CancelWorkflow, CancelTask,
// group management, index resync) are open to this role only.
const SystemAdminRole = "system:admin"

const (
	GroupRoleManager = "manager"
	GroupRoleMember  = "member"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasSystemAdminRole() bool {
	return c.HasRole(SystemAdminRole)
}

// GroupRole one working-group membership of the current actor,
// resolved from the database when the request enters the system.
type GroupRole struct {
	GroupID types.ID `json:"groupId"`
	Role    string   `json:"role"`
}

type GroupRoles []GroupRole

func (c GroupRoles) HasGroup(groupId types.ID) bool {
	for _, v := range c {
		if v.GroupID == groupId {
			return true
		}
	}
	return false
}

func (c GroupRoles) HasGroupRole(groupId types.ID, role string) bool {
	for _, v := range c {
		if v.GroupID == groupId && strings.EqualFold(v.Role, role) {
			return true
		}
	}
	return false
}

func (c GroupRoles) GroupIDs() []types.ID {
	ids := make([]types.ID, 0, len(c))
	for _, v := range c {
		ids = append(ids, v.GroupID)
	}
	return ids
}
