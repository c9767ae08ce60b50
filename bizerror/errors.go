package bizerror

import (
	"errors"
	"fmt"
	"net/http"
	"steward/common"

	"github.com/fundwit/go-commons/types"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("record not found")

	// ErrInvalidState the requested transition is not defined for the entity's current status
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict a guarded update affected no row: the entity changed under us
	ErrConflict = errors.New("concurrent modification")
)

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *common.BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &common.BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message}
}

// PreconditionFailedError an ordering dependency is violated: some earlier
// steps of the workflow are not yet terminal.
type PreconditionFailedError struct {
	WorkflowID types.ID   `json:"workflowId"`
	StepIDs    []types.ID `json:"stepIds"`
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("workflow %d has non-terminal steps %v", e.WorkflowID, e.StepIDs)
}
func (e *PreconditionFailedError) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusConflict, Code: "workflow.precondition_failed",
		Message: "earlier steps are not terminal", Data: e}
}

// TasksIncompleteError a step can not complete while some of its tasks are
// still pending or in progress.
type TasksIncompleteError struct {
	StepID  types.ID   `json:"stepId"`
	TaskIDs []types.ID `json:"taskIds"`
}

func (e *TasksIncompleteError) Error() string {
	return fmt.Sprintf("step %d has non-terminal tasks %v", e.StepID, e.TaskIDs)
}
func (e *TasksIncompleteError) Respond() *common.BizErrorDetail {
	return &common.BizErrorDetail{Status: http.StatusConflict, Code: "workflow.tasks_incomplete",
		Message: "tasks under step are not all terminal", Data: e}
}
