package sessions

import (
	"net/http"
	"steward/account"
	"steward/bizerror"
	"steward/persistence"
	"steward/session"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"github.com/patrickmn/go-cache"
)

var PathSessions = "/v1/sessions"

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func RegisterSessionsRestAPI(r *gin.Engine) {
	g := r.Group(PathSessions)
	g.POST("", handleLogin)
	g.DELETE("", handleLogout)
}

func handleLogin(c *gin.Context) {
	login := LoginRequest{}
	if err := c.ShouldBindBodyWith(&login, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	identity := session.Identity{}
	db := persistence.ActiveDataSourceManager.GormDB(c.Request.Context())
	err := db.Model(&account.User{}).
		Where(&account.User{Name: login.Name, Secret: account.HashSha256(login.Password)}).
		Scan(&identity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			panic(bizerror.ErrUnauthenticated)
		}
		panic(err)
	}

	perms, err := account.LoadPermsFunc(identity.ID)
	if err != nil {
		panic(err)
	}
	secCtx := session.Session{Token: uuid.New().String(), Identity: identity, Perms: perms, SigningTime: time.Now()}
	if session.LoadGroupRolesFunc != nil {
		if groupRoles, err := session.LoadGroupRolesFunc(identity.ID); err == nil {
			secCtx.GroupRoles = groupRoles
		}
	}
	session.TokenCache.Set(secCtx.Token, &secCtx, cache.DefaultExpiration)

	c.SetCookie(session.KeySecToken, secCtx.Token, int(session.TokenExpiration/time.Second), "/", "", false, false)
	c.JSON(http.StatusOK, &secCtx)
}

func handleLogout(c *gin.Context) {
	token, _ := c.Cookie(session.KeySecToken) // ErrNoCookie
	if token != "" {
		session.TokenCache.Delete(token)
	}
	c.SetCookie(session.KeySecToken, "", -1, "/", "", false, false)
	c.AbortWithStatus(http.StatusNoContent)
}
