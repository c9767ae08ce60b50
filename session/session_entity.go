package session

import (
	"context"
	"steward/authority"
	"time"

	"github.com/fundwit/go-commons/types"
)

// Session the resolved actor of the current request: identity, system
// permissions, and current working-group memberships. The engine receives it
// as an explicit parameter and holds no ambient state of its own.
type Session struct {
	Token      string                `json:"token"`
	Identity   Identity              `json:"identity"`
	Perms      authority.Permissions `json:"perms"`
	GroupRoles authority.GroupRoles  `json:"groupRoles"`

	SigningTime time.Time       `json:"-"`
	Context     context.Context `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (s *Session) Clone() Session {
	c := *s
	c.Perms = append(authority.Permissions{}, s.Perms...)
	c.GroupRoles = append(authority.GroupRoles{}, s.GroupRoles...)
	return c
}
