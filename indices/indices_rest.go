package indices

import (
	"net/http"
	"steward/bizerror"
	"steward/session"

	"github.com/gin-gonic/gin"
)

var (
	PathIndexRequests = "/v1/index-requests"
	PathTaskLogSearch = "/v1/task-log-search"
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRequests, middleWares...)
	g.POST("", handleScheduleSyncRun)

	q := r.Group(PathTaskLogSearch, middleWares...)
	q.GET("", handleSearchTaskLogs)
}

func handleScheduleSyncRun(c *gin.Context) {
	accepted, err := ScheduleNewSyncRunFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	if accepted {
		c.Status(http.StatusAccepted)
	} else {
		c.Status(http.StatusTooManyRequests)
	}
}

func handleSearchTaskLogs(c *gin.Context) {
	query := TaskLogSearchQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	docs, err := SearchTaskLogsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, docs)
}
