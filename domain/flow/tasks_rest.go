package flow

import (
	"net/http"
	"steward/bizerror"
	"steward/domain"
	"steward/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathWorkflowTasks = "/v1/workflow-tasks"

func RegisterWorkflowTasksRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkflowTasks, middleWares...)
	g.POST(":id/start", handleStartTask)
	g.POST(":id/complete", handleCompleteTask)
	g.POST(":id/cancel", handleCancelTask)
}

func handleStartTask(c *gin.Context) {
	task, err := StartTaskFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, task)
}

func handleCompleteTask(c *gin.Context) {
	changes := domain.CompleteTaskRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindBodyWith(&changes, binding.JSON); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
	}
	task, err := CompleteTaskFunc(parseIdParam(c, "id"), &changes, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, task)
}

func handleCancelTask(c *gin.Context) {
	task, err := CancelTaskFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, task)
}
