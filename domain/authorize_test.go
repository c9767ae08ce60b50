package domain_test

import (
	"steward/domain"
	"steward/testinfra"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/stretchr/testify/assert"
)

func TestCanActOnTask(t *testing.T) {
	task := &domain.WorkflowTask{ID: 1, AssigneeID: 20}
	step := &domain.WorkflowStep{ID: 2, WorkingGroupID: 5}

	assert.False(t, domain.CanActOnTask(nil, task, step))

	// the assignee may act regardless of group membership
	assert.True(t, domain.CanActOnTask(testinfra.BuildSession(20), task, step))

	// a current group member may act on a task assigned to someone else
	assert.True(t, domain.CanActOnTask(testinfra.BuildSession(30, "member_5"), task, step))
	assert.True(t, domain.CanActOnTask(testinfra.BuildSession(30, "manager_5"), task, step))

	// neither assignee nor group member
	assert.False(t, domain.CanActOnTask(testinfra.BuildSession(30), task, step))
	assert.False(t, domain.CanActOnTask(testinfra.BuildSession(30, "member_6"), task, step))

	// an unassigned task of a group-less step is open to nobody
	bare := &domain.WorkflowTask{ID: 3}
	orphanStep := &domain.WorkflowStep{ID: 4}
	assert.False(t, domain.CanActOnTask(testinfra.BuildSession(20), bare, orphanStep))
}

func TestMinutesBetween(t *testing.T) {
	base := time.Date(2021, 4, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), domain.MinutesBetween(types.Timestamp(base), types.Timestamp(base)))
	assert.Equal(t, int64(0), domain.MinutesBetween(types.Timestamp(base), types.Timestamp(base.Add(59*time.Second))))
	assert.Equal(t, int64(1), domain.MinutesBetween(types.Timestamp(base), types.Timestamp(base.Add(60*time.Second))))
	assert.Equal(t, int64(1), domain.MinutesBetween(types.Timestamp(base), types.Timestamp(base.Add(119*time.Second))))
	assert.Equal(t, int64(90), domain.MinutesBetween(types.Timestamp(base), types.Timestamp(base.Add(90*time.Minute+30*time.Second))))
}
