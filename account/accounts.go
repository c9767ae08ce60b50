package account

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
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
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc = CreateUser
	QueryUsersFunc = QueryUsers
	LoadPermsFunc  = loadPerms
)

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Name   string   `json:"name"`
	Secret string   `json:"-"`

	Nickname string `json:"nickname"`
}

func (r *User) TableName() string {
	return "users"
}

type UserRoleBinding struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	UserID types.ID `json:"userId" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Role   string   `json:"role"`
}

func (r *UserRoleBinding) TableName() string {
	return "user_role_bindings"
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=32"`
	Secret   string `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname string `json:"nickname" binding:"omitempty,gte=1,lte=32"`
}

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultSecurityConfiguration seeds the bootstrap admin account
// (INITIAL_ADMIN_PASSWORD, default admin123) when the user table is empty.
func DefaultSecurityConfiguration() error {
	return persistence.ActiveDataSourceManager.GormDB(nil).Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			if err := tx.Save(&User{ID: 1, Name: "admin", Secret: HashSha256(initialAdminPassword)}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Save(&UserRoleBinding{ID: 1, UserID: 1, Role: authority.SystemAdminRole}).Error
	})
}

func CreateUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !s.Perms.HasSystemAdminRole() {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Nickname: c.Nickname, Secret: HashSha256(c.Secret)}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Context).Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname}, nil
}

func QueryUsers(s *session.Session) ([]UserInfo, error) {
	var users []UserInfo
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&User{}).Order("name ASC").Scan(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func loadPerms(uid types.ID) (authority.Permissions, error) {
	var roles []string
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Model(&UserRoleBinding{}).Where(&UserRoleBinding{UserID: uid}).Pluck("role", &roles).Error; err != nil {
		return nil, err
	}
	return authority.Permissions(roles), nil
}
