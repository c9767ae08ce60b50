package indices

import (
	"fmt"
	"steward/client/es"
	"steward/tasklog"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	TaskLogIndexName = "task_logs"
)

type TaskLogDocument struct {
	tasklog.TaskLog
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexTaskLogs(records []tasklog.TaskLog) error {
	docs := make([]TaskLogDocument, 0, len(records))
	for _, record := range records {
		docs = append(docs, TaskLogDocument{TaskLog: record})
	}

	if err := saveTaskLogDocuments(docs); err != nil {
		return err
	}
	return nil
}

func saveTaskLogDocuments(docs []TaskLogDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(TaskLogIndexName, doc.ID, doc, indexRobot); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index task log %d of task %d failed: %v", doc.ID, doc.TaskID, err)
		} else {
			logrus.Infof("index task log %d of task %d successfully", doc.ID, doc.TaskID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
