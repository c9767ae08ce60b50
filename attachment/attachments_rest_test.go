package attachment_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"steward/attachment"
	"steward/bizerror"
	"steward/session"
	"steward/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func buildAttachmentsRouter() *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	attachment.RegisterTaskAttachmentsRestAPI(router)
	return router
}

func buildMultipartBody(fileName, content string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	Expect(err).To(BeNil())
	_, err = part.Write([]byte(content))
	Expect(err).To(BeNil())
	Expect(writer.Close()).To(BeNil())
	return body, writer.FormDataContentType()
}

func TestHandleCreateTaskAttachment(t *testing.T) {
	RegisterTestingT(t)
	router := buildAttachmentsRouter()

	t.Run("should reject an invalid taskId", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, attachment.PathTaskAttachments+"?taskId=abc", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param", "message":"invalid taskId 'abc'"}`))
	})

	t.Run("should reject a request without a file part", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, attachment.PathTaskAttachments+"?taskId=3", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
	})

	t.Run("should pass the upload through and respond 201", func(t *testing.T) {
		defer func() { attachment.CreateTaskAttachmentFunc = attachment.CreateTaskAttachment }()
		var receivedFileName string
		var receivedContent []byte
		attachment.CreateTaskAttachmentFunc = func(taskId types.ID, fileName, contentType string,
			content io.Reader, s *session.Session) (*attachment.TaskAttachment, error) {
			receivedFileName = fileName
			receivedContent, _ = ioutil.ReadAll(content)
			return &attachment.TaskAttachment{ID: 400, TaskID: taskId, WorkflowID: 1,
				FileName: fileName, ObjectKey: "task-attachments/400", UploaderID: 20}, nil
		}

		body, contentType := buildMultipartBody("receipt.jpg", "jpeg bytes")
		req := httptest.NewRequest(http.MethodPost, attachment.PathTaskAttachments+"?taskId=3", body)
		req.Header.Set("Content-Type", contentType)
		status, respBody, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(respBody).To(MatchJSON(`{"id":"400", "taskId":"3", "workflowId":"1", "fileName":"receipt.jpg",
			"contentType":"", "objectKey":"task-attachments/400", "uploaderId":"20", "createTime": null}`))
		Expect(receivedFileName).To(Equal("receipt.jpg"))
		Expect(string(receivedContent)).To(Equal("jpeg bytes"))
	})
}

func TestHandleDownloadTaskAttachment(t *testing.T) {
	RegisterTestingT(t)
	router := buildAttachmentsRouter()

	t.Run("should stream the object with its metadata headers", func(t *testing.T) {
		defer func() { attachment.DetailTaskAttachmentFunc = attachment.DetailTaskAttachment }()
		attachment.DetailTaskAttachmentFunc = func(id types.ID, s *session.Session) (*attachment.TaskAttachment, io.ReadCloser, error) {
			record := attachment.TaskAttachment{ID: id, TaskID: 3, FileName: "receipt.jpg", ContentType: "image/jpeg"}
			return &record, ioutil.NopCloser(bytes.NewReader([]byte("jpeg bytes"))), nil
		}

		req := httptest.NewRequest(http.MethodGet, attachment.PathTaskAttachments+"/400/content", nil)
		status, body, resp := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal("jpeg bytes"))
		Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
		Expect(resp.Header.Get("Content-Disposition")).To(Equal(`attachment; filename="receipt.jpg"`))
	})

	t.Run("should fall back to octet-stream when no content type is recorded", func(t *testing.T) {
		defer func() { attachment.DetailTaskAttachmentFunc = attachment.DetailTaskAttachment }()
		attachment.DetailTaskAttachmentFunc = func(id types.ID, s *session.Session) (*attachment.TaskAttachment, io.ReadCloser, error) {
			record := attachment.TaskAttachment{ID: id, TaskID: 3, FileName: "notes.bin"}
			return &record, ioutil.NopCloser(bytes.NewReader([]byte{0x1})), nil
		}

		req := httptest.NewRequest(http.MethodGet, attachment.PathTaskAttachments+"/400/content", nil)
		status, _, resp := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(Equal("application/octet-stream"))
	})

	t.Run("should respond 404 when the attachment is unknown", func(t *testing.T) {
		defer func() { attachment.DetailTaskAttachmentFunc = attachment.DetailTaskAttachment }()
		attachment.DetailTaskAttachmentFunc = func(id types.ID, s *session.Session) (*attachment.TaskAttachment, io.ReadCloser, error) {
			return nil, nil, bizerror.ErrNotFound
		}

		req := httptest.NewRequest(http.MethodGet, attachment.PathTaskAttachments+"/400/content", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"common.record_not_found", "message":"record not found"}`))
	})
}
