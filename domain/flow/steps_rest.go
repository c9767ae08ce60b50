package flow

import (
	"net/http"
	"steward/bizerror"
	"steward/domain"
	"steward/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathWorkflowSteps = "/v1/workflow-steps"

func RegisterWorkflowStepsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkflowSteps, middleWares...)
	g.POST(":id/start", handleStartStep)
	g.POST(":id/complete", handleCompleteStep)
	g.POST(":id/skip", handleSkipStep)
}

func handleStartStep(c *gin.Context) {
	step, err := StartStepFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, step)
}

func handleCompleteStep(c *gin.Context) {
	req := domain.CompleteStepRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
	}
	step, err := CompleteStepFunc(parseIdParam(c, "id"), req.Notes, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, step)
}

func handleSkipStep(c *gin.Context) {
	step, err := SkipStepFunc(parseIdParam(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, step)
}
