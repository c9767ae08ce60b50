package attachment

import (
	"errors"
	"net/http"
	"steward/bizerror"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

var PathTaskAttachments = "/v1/task-attachments"

func RegisterTaskAttachmentsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathTaskAttachments, middleWares...)
	g.POST("", handleCreateTaskAttachment)
	g.GET("", handleListTaskAttachments)
	g.GET(":id/content", handleDownloadTaskAttachment)
}

func handleCreateTaskAttachment(c *gin.Context) {
	taskId := parseIdQuery(c, "taskId")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	file, err := fileHeader.Open()
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	defer file.Close()

	record, err := CreateTaskAttachmentFunc(taskId, fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), file, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleListTaskAttachments(c *gin.Context) {
	records, err := ListTaskAttachmentsFunc(parseIdQuery(c, "taskId"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDownloadTaskAttachment(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid id '" + c.Param("id") + "'")})
	}

	record, content, err := DetailTaskAttachmentFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	defer content.Close()

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+record.FileName+`"`)
	c.DataFromReader(http.StatusOK, -1, contentType, content, nil)
}

func parseIdQuery(c *gin.Context, name string) types.ID {
	id, err := types.ParseID(c.Query(name))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: errors.New("invalid " + name + " '" + c.Query(name) + "'")})
	}
	return id
}
