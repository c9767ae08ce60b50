package indices

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"steward/bizerror"
	"steward/session"
	"steward/testinfra"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestHandleScheduleSyncRun(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterIndicesRestAPI(router)

	t.Run("handle error", func(t *testing.T) {
		defer func() { ScheduleNewSyncRunFunc = ScheduleNewSyncRun }()
		ScheduleNewSyncRunFunc = func(sec *session.Session) (bool, error) {
			return false, errors.New("error on schedule new sync run")
		}
		req := httptest.NewRequest(http.MethodPost, PathIndexRequests, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error", "message":"error on schedule new sync run"}`))
	})

	t.Run("accepted when a new run is scheduled", func(t *testing.T) {
		defer func() { ScheduleNewSyncRunFunc = ScheduleNewSyncRun }()
		ScheduleNewSyncRunFunc = func(sec *session.Session) (bool, error) {
			return true, nil
		}
		req := httptest.NewRequest(http.MethodPost, PathIndexRequests, nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusAccepted))
	})

	t.Run("too many requests while a run is in flight", func(t *testing.T) {
		defer func() { ScheduleNewSyncRunFunc = ScheduleNewSyncRun }()
		ScheduleNewSyncRunFunc = func(sec *session.Session) (bool, error) {
			return false, nil
		}
		req := httptest.NewRequest(http.MethodPost, PathIndexRequests, nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusTooManyRequests))
	})
}

func TestHandleSearchTaskLogs(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	RegisterIndicesRestAPI(router)

	t.Run("should pass the parsed query through", func(t *testing.T) {
		defer func() { SearchTaskLogsFunc = SearchTaskLogs }()
		var receivedQuery TaskLogSearchQuery
		SearchTaskLogsFunc = func(q TaskLogSearchQuery, s *session.Session) ([]TaskLogDocument, error) {
			receivedQuery = q
			return []TaskLogDocument{}, nil
		}

		req := httptest.NewRequest(http.MethodGet, PathTaskLogSearch+"?taskId=3&performerId=20", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[]`))
		Expect(receivedQuery.TaskID).To(Equal(types.ID(3)))
		Expect(receivedQuery.PerformerID).To(Equal(types.ID(20)))
		Expect(receivedQuery.WorkflowID.IsZero()).To(BeTrue())
	})

	t.Run("handle error", func(t *testing.T) {
		defer func() { SearchTaskLogsFunc = SearchTaskLogs }()
		SearchTaskLogsFunc = func(q TaskLogSearchQuery, s *session.Session) ([]TaskLogDocument, error) {
			return nil, errors.New("search backend down")
		}
		req := httptest.NewRequest(http.MethodGet, PathTaskLogSearch, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error", "message":"search backend down"}`))
	})
}
