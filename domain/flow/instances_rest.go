package flow

import (
	"errors"
	"net/http"
	"steward/bizerror"
	"steward/domain"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathWorkflowInstances = "/v1/workflow-instances"

func RegisterWorkflowInstancesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkflowInstances, middleWares...)
	g.POST("", handleCreateInstance)
	g.GET("", handleQueryInstances)
	g.GET(":id", handleDetailInstance)
	g.POST(":id/complete", handleCompleteWorkflow)
	g.POST(":id/cancel", handleCancelWorkflow)
}

func handleCreateInstance(c *gin.Context) {
	creation := domain.WorkflowInstanceCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := CreateInstanceFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, detail)
}

func handleQueryInstances(c *gin.Context) {
	query := domain.WorkflowInstanceQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	instances, err := QueryInstancesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, instances)
}

func handleDetailInstance(c *gin.Context) {
	detail, err := DetailInstanceFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleCompleteWorkflow(c *gin.Context) {
	instance, err := CompleteWorkflowFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, instance)
}

func handleCancelWorkflow(c *gin.Context) {
	instance, err := CancelWorkflowFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, instance)
}

func parseIdParam(c *gin.Context, name string) types.ID {
	id, err := types.ParseID(c.Param(name))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid " + name + " '" + c.Param(name) + "'")})
	}
	return id
}
