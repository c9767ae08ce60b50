package workgroup

import (
	"errors"
	"steward/authority"
	"steward/bizerror"
	"steward/idgen"
	"steward/persistence"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	workGroupIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateWorkGroupFunc       = CreateWorkGroup
	QueryWorkGroupsFunc       = QueryWorkGroups
	AddWorkGroupMemberFunc    = AddWorkGroupMember
	RemoveWorkGroupMemberFunc = RemoveWorkGroupMember
	ListWorkGroupMembersFunc  = ListWorkGroupMembers
	LoadMembershipsFunc       = LoadMemberships
)

// WorkGroup an authorization scope: membership grants the right to act on
// every task of a step owned by the group.
type WorkGroup struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *WorkGroup) TableName() string {
	return "work_groups"
}

type WorkGroupMember struct {
	GroupID  types.ID `json:"groupId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	MemberID types.ID `json:"memberId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Role     string   `json:"role"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *WorkGroupMember) TableName() string {
	return "work_group_members"
}

type WorkGroupCreation struct {
	Name string `json:"name" binding:"required"`
}

type WorkGroupMemberChange struct {
	GroupID  types.ID `json:"groupId"`
	MemberID types.ID `json:"memberId" binding:"required"`
	Role     string   `json:"role"`
}

func CreateWorkGroup(c *WorkGroupCreation, s *session.Session) (*WorkGroup, error) {
	if !s.Perms.HasSystemAdminRole() {
		return nil, bizerror.ErrForbidden
	}

	record := WorkGroup{ID: idgen.NextID(workGroupIdWorker), Name: c.Name, CreateTime: types.CurrentTimestamp()}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryWorkGroups(s *session.Session) ([]WorkGroup, error) {
	var records []WorkGroup
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Order("name ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func AddWorkGroupMember(c *WorkGroupMemberChange, s *session.Session) error {
	if c.Role == "" {
		c.Role = authority.GroupRoleMember
	}
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if !s.Perms.HasSystemAdminRole() && !s.GroupRoles.HasGroupRole(c.GroupID, authority.GroupRoleManager) {
			return bizerror.ErrForbidden
		}

		group := WorkGroup{ID: c.GroupID}
		if err := tx.Where(&group).First(&group).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}

		// update when exist
		record := WorkGroupMember{GroupID: c.GroupID, MemberID: c.MemberID, Role: c.Role, CreateTime: types.CurrentTimestamp()}
		return tx.Save(&record).Error
	})
}

func RemoveWorkGroupMember(c *WorkGroupMemberChange, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		if !s.Perms.HasSystemAdminRole() && !s.GroupRoles.HasGroupRole(c.GroupID, authority.GroupRoleManager) {
			return bizerror.ErrForbidden
		}
		return tx.Delete(WorkGroupMember{}, "group_id = ? AND member_id = ?", c.GroupID, c.MemberID).Error
	})
}

func ListWorkGroupMembers(groupId types.ID, s *session.Session) ([]WorkGroupMember, error) {
	if !s.Perms.HasSystemAdminRole() && !s.GroupRoles.HasGroup(groupId) {
		return nil, bizerror.ErrForbidden
	}
	var records []WorkGroupMember
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&WorkGroupMember{GroupID: groupId}).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// LoadMemberships current group roles of a user, resolved fresh on every
// request by the session filter.
func LoadMemberships(memberId types.ID) (authority.GroupRoles, error) {
	var records []WorkGroupMember
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Where(&WorkGroupMember{MemberID: memberId}).Find(&records).Error; err != nil {
		return nil, err
	}
	groupRoles := authority.GroupRoles{}
	for _, r := range records {
		groupRoles = append(groupRoles, authority.GroupRole{GroupID: r.GroupID, Role: r.Role})
	}
	return groupRoles, nil
}
