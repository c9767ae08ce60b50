package tasklog

import (
	"errors"
	"net/http"
	"steward/bizerror"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

var PathTaskLogs = "/v1/task-logs"

func RegisterTaskLogsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTaskLogs, middleWares...)
	g.GET("", handleListTaskLogs)
}

func handleListTaskLogs(c *gin.Context) {
	taskId, err := types.ParseID(c.Query("taskId"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid taskId '" + c.Query("taskId") + "'")})
	}

	records, err := ListTaskLogsFunc(taskId, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
