package indices

import (
	"encoding/json"
	"fmt"
	"steward/client/es"
	"steward/session"

	"github.com/fundwit/go-commons/types"
)

var (
	SearchTaskLogsFunc = SearchTaskLogs
)

type TaskLogSearchQuery struct {
	WorkflowID  types.ID `json:"workflowId" form:"workflowId"`
	TaskID      types.ID `json:"taskId" form:"taskId"`
	PerformerID types.ID `json:"performerId" form:"performerId"`
}

// SearchTaskLogs query the audit index by workflow, task or performer.
func SearchTaskLogs(q TaskLogSearchQuery, s *session.Session) ([]TaskLogDocument, error) {
	filters := make([]es.H, 0, 3)
	if !q.WorkflowID.IsZero() {
		filters = append(filters, es.H{"term": es.H{"workflowId": q.WorkflowID}})
	}
	if !q.TaskID.IsZero() {
		filters = append(filters, es.H{"term": es.H{"taskId": q.TaskID}})
	}
	if !q.PerformerID.IsZero() {
		filters = append(filters, es.H{"term": es.H{"performerId": q.PerformerID}})
	}

	sorts := []es.H{{"timestamp": es.H{"order": "asc"}}}
	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(TaskLogIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	docs := make([]TaskLogDocument, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := TaskLogDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
