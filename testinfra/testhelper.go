package testinfra

import (
	"steward/authority"
	"steward/session"
	"strings"

	"github.com/fundwit/go-commons/types"
)

// BuildSession build a session for tests. Each perm of the form "role_groupId"
// also becomes a working-group membership, mirroring how SimpleAuthFilter
// resolves memberships from the database.
func BuildSession(uid types.ID, perms ...string) *session.Session {
	groupRoles := authority.GroupRoles{}
	for _, perm := range perms {
		idx := strings.Index(perm, "_")
		if idx > 0 {
			role := perm[0:idx]
			groupId, err := types.ParseID(perm[idx+1:])
			if err != nil {
				continue
			}
			groupRoles = append(groupRoles, authority.GroupRole{GroupID: groupId, Role: role})
		}
	}

	return &session.Session{Identity: session.Identity{ID: uid}, Perms: perms, GroupRoles: groupRoles}
}
