package domain

import (
	"steward/session"
	"time"

	"github.com/fundwit/go-commons/types"
)

// CanActOnTask the single authorization predicate for acting on a task:
// the actor is the assignee, or the enclosing step has a working group and
// the actor currently belongs to it. Group membership grants access to every
// task of the step, including tasks assigned to someone else.
func CanActOnTask(s *session.Session, task *WorkflowTask, step *WorkflowStep) bool {
	if s == nil {
		return false
	}
	if !task.AssigneeID.IsZero() && task.AssigneeID == s.Identity.ID {
		return true
	}
	if !step.WorkingGroupID.IsZero() && s.GroupRoles.HasGroup(step.WorkingGroupID) {
		return true
	}
	return false
}

// MinutesBetween floor of the interval in whole minutes.
func MinutesBetween(begin, end types.Timestamp) int64 {
	return int64(end.Time().Sub(begin.Time()) / time.Minute)
}
