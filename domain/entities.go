package domain

import (
	"steward/domain/state"

	"github.com/fundwit/go-commons/types"
)

// WorkflowInstance one execution of a workflow type. Created atomically with
// all of its steps and tasks; only its status and completion time ever change
// afterwards. Terminal instances are retained for audit.
type WorkflowInstance struct {
	ID             types.ID             `json:"id" gorm:"primary_key"`
	WorkflowTypeID types.ID             `json:"workflowTypeId"`
	Name           string               `json:"name"`
	Status         state.WorkflowStatus `json:"status"`

	CreateTime   types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	CompleteTime types.Timestamp `json:"completeTime" sql:"type:DATETIME(6)"`
}

func (r *WorkflowInstance) TableName() string {
	return "workflow_instances"
}

// WorkflowStep an ordered phase of a workflow instance. Order is assigned at
// creation, unique within the workflow, and never changes.
type WorkflowStep struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	WorkflowID types.ID `json:"workflowId"`
	Name       string   `json:"name"`
	Order      int      `json:"order" gorm:"column:order_num"`

	Status         state.StepStatus `json:"status"`
	WorkingGroupID types.ID         `json:"workingGroupId"`

	BeginTime types.Timestamp `json:"beginTime" sql:"type:DATETIME(6)"`
	EndTime   types.Timestamp `json:"endTime" sql:"type:DATETIME(6)"`

	// WaitTimeMinutes idle interval between the previous step's completion
	// and this step's start; nil for the first step or when the previous
	// terminal step has no end time (it was skipped).
	WaitTimeMinutes *int64 `json:"waitTimeMinutes"`
	DurationMinutes *int64 `json:"durationMinutes"`

	Notes string `json:"notes"`
}

func (r *WorkflowStep) TableName() string {
	return "workflow_steps"
}

// WorkflowTask a unit of work under a step, assignable to an individual.
// WorkflowID is denormalized for direct per-workflow queries.
type WorkflowTask struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	StepID     types.ID `json:"stepId"`
	WorkflowID types.ID `json:"workflowId"`
	Name       string   `json:"name"`

	AssigneeID types.ID         `json:"assigneeId"`
	Status     state.TaskStatus `json:"status"`

	BeginTime types.Timestamp `json:"beginTime" sql:"type:DATETIME(6)"`
	EndTime   types.Timestamp `json:"endTime" sql:"type:DATETIME(6)"`

	ActualMinutes *int64 `json:"actualMinutes"`

	WorkDone string `json:"workDone"`
	Notes    string `json:"notes"`
}

func (r *WorkflowTask) TableName() string {
	return "workflow_tasks"
}

type StepDetail struct {
	WorkflowStep
	Tasks []WorkflowTask `json:"tasks" gorm:"-"`
}

type WorkflowInstanceDetail struct {
	WorkflowInstance
	Steps []StepDetail `json:"steps" gorm:"-"`
}
