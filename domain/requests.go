package domain

import (
	"steward/domain/state"

	"github.com/fundwit/go-commons/types"
)

type WorkflowInstanceCreation struct {
	WorkflowTypeID types.ID       `json:"workflowTypeId" binding:"required"`
	Name           string         `json:"name" binding:"required"`
	Steps          []StepCreation `json:"steps" binding:"required"`
}

type StepCreation struct {
	Name           string         `json:"name" binding:"required"`
	Order          int            `json:"order" binding:"required"`
	WorkingGroupID types.ID       `json:"workingGroupId"`
	Tasks          []TaskCreation `json:"tasks"`
}

type TaskCreation struct {
	Name       string   `json:"name" binding:"required"`
	AssigneeID types.ID `json:"assigneeId"`
}

type WorkflowInstanceQuery struct {
	WorkflowTypeID types.ID             `json:"workflowTypeId" form:"workflowTypeId"`
	Status         state.WorkflowStatus `json:"status" form:"status"`
}

type CompleteStepRequest struct {
	Notes string `json:"notes"`
}

type CompleteTaskRequest struct {
	WorkDone string `json:"workDone"`
	Notes    string `json:"notes"`
}
