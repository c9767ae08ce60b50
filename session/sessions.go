package session

import (
	"steward/authority"
	"steward/bizerror"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const TokenExpiration = 24 * time.Hour

var TokenCache = cache.New(TokenExpiration, 1*time.Minute)

const KeySecCtx = "SecCtx"
const KeySecToken = "sec_token"

// LoadGroupRolesFunc resolves the actor's current working-group memberships.
// Bound to workgroup.LoadMemberships at startup; memberships are re-read on
// every request so a revocation takes effect immediately.
var LoadGroupRolesFunc func(memberId types.ID) (authority.GroupRoles, error)

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func SimpleAuthFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(KeySecToken)
		if err != nil {
			panic(bizerror.ErrUnauthenticated)
		}
		value, found := TokenCache.Get(token)
		if !found {
			panic(bizerror.ErrUnauthenticated)
		}
		secCtx, ok := value.(*Session)
		if !ok {
			panic(bizerror.ErrUnauthenticated)
		}

		if LoadGroupRolesFunc != nil {
			groupRoles, err := LoadGroupRolesFunc(secCtx.Identity.ID)
			if err != nil {
				logrus.Warnf("failed to load group roles of user %d: %v", secCtx.Identity.ID, err)
			} else {
				secCtx.GroupRoles = groupRoles
			}
		}

		InjectSessionIntoGinContext(ctx, secCtx)
		ctx.Next()
	}
}

func InjectSessionIntoGinContext(ctx *gin.Context, secCtx *Session) {
	if secCtx != nil && secCtx.Token != "" {
		ctx.Set(KeySecCtx, secCtx)
	}
}
