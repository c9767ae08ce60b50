package workgroup

import (
	"errors"
	"net/http"
	"steward/bizerror"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathWorkGroups = "/v1/work-groups"

func RegisterWorkGroupsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkGroups, middleWares...)
	g.POST("", handleCreateWorkGroup)
	g.GET("", handleQueryWorkGroups)
	g.GET(":id/members", handleListWorkGroupMembers)
	g.POST(":id/members", handleAddWorkGroupMember)
	g.DELETE(":id/members/:memberId", handleRemoveWorkGroupMember)
}

func handleCreateWorkGroup(c *gin.Context) {
	creation := WorkGroupCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateWorkGroupFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleQueryWorkGroups(c *gin.Context) {
	records, err := QueryWorkGroupsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleListWorkGroupMembers(c *gin.Context) {
	groupId := parseIdParam(c, "id")
	records, err := ListWorkGroupMembersFunc(groupId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleAddWorkGroupMember(c *gin.Context) {
	change := WorkGroupMemberChange{}
	if err := c.ShouldBindBodyWith(&change, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	change.GroupID = parseIdParam(c, "id")
	if err := AddWorkGroupMemberFunc(&change, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleRemoveWorkGroupMember(c *gin.Context) {
	change := WorkGroupMemberChange{GroupID: parseIdParam(c, "id"), MemberID: parseIdParam(c, "memberId")}
	if err := RemoveWorkGroupMemberFunc(&change, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func parseIdParam(c *gin.Context, name string) types.ID {
	id, err := types.ParseID(c.Param(name))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid " + name + " '" + c.Param(name) + "'")})
	}
	return id
}
