package flow

import (
	"errors"
	"steward/bizerror"
	"steward/domain"
	"steward/domain/state"
	"steward/event"
	"steward/persistence"
	"steward/session"
	"steward/tasklog"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	StartTaskFunc    = StartTask
	CompleteTaskFunc = CompleteTask
	CancelTaskFunc   = CancelTask
)

// StartTask begins work on a pending task of an in-progress step. The actor
// must pass CanActOnTask; the audit entry is appended best-effort.
func StartTask(taskId types.ID, s *session.Session) (*domain.WorkflowTask, error) {
	var updated domain.WorkflowTask
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		task, step, instance, err := findTaskTree(tx, taskId)
		if err != nil {
			return err
		}
		if !domain.CanActOnTask(s, task, step) {
			return bizerror.ErrForbidden
		}
		if instance.Status.IsTerminal() {
			return bizerror.ErrInvalidState
		}
		if task.Status != state.TaskPending || step.Status != state.StepInProgress {
			return bizerror.ErrInvalidState
		}

		ret := tx.Model(&domain.WorkflowTask{}).
			Where("id = ? AND status = ?", taskId, state.TaskPending).
			Update(&domain.WorkflowTask{Status: state.TaskInProgress, BeginTime: now})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		appendTaskLog(&tasklog.TaskLog{
			TaskID: task.ID, WorkflowID: task.WorkflowID, Action: tasklog.ActionStart,
			PerformerID: s.Identity.ID, PerformerName: s.Identity.Nickname,
			Description: "task started", Timestamp: now,
		}, tx)

		return tx.Where(&domain.WorkflowTask{ID: taskId}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompleteTask finishes an in-progress task, recording the actual working
// minutes and the optional work report.
func CompleteTask(taskId types.ID, changes *domain.CompleteTaskRequest, s *session.Session) (*domain.WorkflowTask, error) {
	var updated domain.WorkflowTask
	var ev *event.EventRecord
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		task, step, _, err := findTaskTree(tx, taskId)
		if err != nil {
			return err
		}
		if !domain.CanActOnTask(s, task, step) {
			return bizerror.ErrForbidden
		}
		if task.Status != state.TaskInProgress {
			return bizerror.ErrInvalidState
		}

		actual := domain.MinutesBetween(task.BeginTime, now)
		ret := tx.Model(&domain.WorkflowTask{}).
			Where("id = ? AND status = ?", taskId, state.TaskInProgress).
			Update(&domain.WorkflowTask{Status: state.TaskCompleted, EndTime: now, ActualMinutes: &actual,
				WorkDone: changes.WorkDone, Notes: changes.Notes})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		appendTaskLog(&tasklog.TaskLog{
			TaskID: task.ID, WorkflowID: task.WorkflowID, Action: tasklog.ActionComplete,
			PerformerID: s.Identity.ID, PerformerName: s.Identity.Nickname,
			Description: changes.WorkDone, DurationMinutes: &actual, Timestamp: now,
		}, tx)

		if err := tx.Where(&domain.WorkflowTask{ID: taskId}).First(&updated).Error; err != nil {
			return err
		}

		ev = event.CreateEvent(event.SourceTypeTask, task.ID, task.Name, event.EventCategoryStatusUpdated,
			[]event.UpdatedProperty{{
				PropertyName: "Status", PropertyDesc: "Status",
				OldValue: string(state.TaskInProgress), OldValueDesc: string(state.TaskInProgress),
				NewValue: string(state.TaskCompleted), NewValueDesc: string(state.TaskCompleted),
			}}, &s.Identity, now, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &updated, nil
}

// CancelTask administrative withdrawal of a pending or in-progress task.
// A cancelled task counts as terminal for its step's completion check, and
// the step need not be in progress for the cancellation itself.
func CancelTask(taskId types.ID, s *session.Session) (*domain.WorkflowTask, error) {
	if !s.Perms.HasSystemAdminRole() {
		return nil, bizerror.ErrForbidden
	}

	var updated domain.WorkflowTask
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		task, _, _, err := findTaskTree(tx, taskId)
		if err != nil {
			return err
		}
		if !task.Status.CanTransitTo(state.TaskCancelled) {
			return bizerror.ErrInvalidState
		}

		ret := tx.Model(&domain.WorkflowTask{}).
			Where("id = ? AND status IN (?)", taskId, []state.TaskStatus{state.TaskPending, state.TaskInProgress}).
			Update("status", state.TaskCancelled)
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		appendTaskLog(&tasklog.TaskLog{
			TaskID: task.ID, WorkflowID: task.WorkflowID, Action: tasklog.ActionCancel,
			PerformerID: s.Identity.ID, PerformerName: s.Identity.Nickname,
			Description: "task cancelled", Timestamp: now,
		}, tx)

		return tx.Where(&domain.WorkflowTask{ID: taskId}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// appendTaskLog audit writes never fail the surrounding transition.
func appendTaskLog(record *tasklog.TaskLog, tx *gorm.DB) {
	if err := tasklog.AppendTaskLogFunc(record, tx); err != nil {
		logrus.Warnf("failed to append task log of task %d action %s: %v", record.TaskID, record.Action, err)
	}
}

func findTaskTree(tx *gorm.DB, taskId types.ID) (*domain.WorkflowTask, *domain.WorkflowStep, *domain.WorkflowInstance, error) {
	task := domain.WorkflowTask{}
	if err := tx.Where(&domain.WorkflowTask{ID: taskId}).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, nil, err
	}
	step := domain.WorkflowStep{}
	if err := tx.Where(&domain.WorkflowStep{ID: task.StepID}).First(&step).Error; err != nil {
		return nil, nil, nil, err
	}
	instance := domain.WorkflowInstance{}
	if err := tx.Where(&domain.WorkflowInstance{ID: step.WorkflowID}).First(&instance).Error; err != nil {
		return nil, nil, nil, err
	}
	return &task, &step, &instance, nil
}
