package flow

import (
	"errors"
	"steward/bizerror"
	"steward/domain"
	"steward/domain/state"
	"steward/event"
	"steward/persistence"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	StartStepFunc    = StartStep
	CompleteStepFunc = CompleteStep
	SkipStepFunc     = SkipStep
)

// StartStep moves a pending step into progress once every lower-order step
// is terminal. The gating read and the guarded update share one transaction,
// so two concurrent starts of the same step settle to a single winner.
func StartStep(stepId types.ID, s *session.Session) (*domain.WorkflowStep, error) {
	var updated domain.WorkflowStep
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		step, instance, err := findStepAndInstance(tx, stepId)
		if err != nil {
			return err
		}
		if instance.Status.IsTerminal() {
			return bizerror.ErrInvalidState
		}
		if step.Status != state.StepPending {
			return bizerror.ErrInvalidState
		}

		var siblings []domain.WorkflowStep
		if err := tx.Where(&domain.WorkflowStep{WorkflowID: step.WorkflowID}).
			Where("order_num < ?", step.Order).Order("order_num ASC").Find(&siblings).Error; err != nil {
			return err
		}
		var nonTerminal []types.ID
		for _, earlier := range siblings {
			if !earlier.Status.IsTerminal() {
				nonTerminal = append(nonTerminal, earlier.ID)
			}
		}
		if len(nonTerminal) > 0 {
			return &bizerror.PreconditionFailedError{WorkflowID: step.WorkflowID, StepIDs: nonTerminal}
		}

		// wait time from the nearest lower-order terminal step; null when
		// this is the first step or the previous step ended without an end
		// time (it was skipped)
		var waitTime *int64
		if len(siblings) > 0 {
			previous := siblings[len(siblings)-1]
			if !previous.EndTime.IsZero() {
				minutes := domain.MinutesBetween(previous.EndTime, now)
				waitTime = &minutes
			}
		}

		ret := tx.Model(&domain.WorkflowStep{}).
			Where("id = ? AND status = ?", stepId, state.StepPending).
			Update(&domain.WorkflowStep{Status: state.StepInProgress, BeginTime: now, WaitTimeMinutes: waitTime})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		// the workflow implicitly starts with its first started step
		if err := tx.Model(&domain.WorkflowInstance{}).
			Where("id = ? AND status = ?", step.WorkflowID, state.WorkflowPending).
			Update(&domain.WorkflowInstance{Status: state.WorkflowInProgress}).Error; err != nil {
			return err
		}

		return tx.Where(&domain.WorkflowStep{ID: stepId}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompleteStep closes an in-progress step once every task under it is
// terminal (completed or cancelled). The task scan runs in the same
// transaction as the step's guarded update, so a concurrent task start on a
// sibling task can not race past the check.
func CompleteStep(stepId types.ID, notes string, s *session.Session) (*domain.WorkflowStep, error) {
	var updated domain.WorkflowStep
	var ev *event.EventRecord
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		step, _, err := findStepAndInstance(tx, stepId)
		if err != nil {
			return err
		}
		if step.Status != state.StepInProgress {
			return bizerror.ErrInvalidState
		}

		var tasks []domain.WorkflowTask
		if err := tx.Where(&domain.WorkflowTask{StepID: stepId}).Find(&tasks).Error; err != nil {
			return err
		}
		var nonTerminal []types.ID
		for _, task := range tasks {
			if !task.Status.IsTerminal() {
				nonTerminal = append(nonTerminal, task.ID)
			}
		}
		if len(nonTerminal) > 0 {
			return &bizerror.TasksIncompleteError{StepID: stepId, TaskIDs: nonTerminal}
		}

		duration := domain.MinutesBetween(step.BeginTime, now)
		ret := tx.Model(&domain.WorkflowStep{}).
			Where("id = ? AND status = ?", stepId, state.StepInProgress).
			Update(&domain.WorkflowStep{Status: state.StepCompleted, EndTime: now, DurationMinutes: &duration, Notes: notes})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		if err := tx.Where(&domain.WorkflowStep{ID: stepId}).First(&updated).Error; err != nil {
			return err
		}

		ev = event.CreateEvent(event.SourceTypeStep, step.ID, step.Name, event.EventCategoryStatusUpdated,
			[]event.UpdatedProperty{{
				PropertyName: "Status", PropertyDesc: "Status",
				OldValue: string(state.StepInProgress), OldValueDesc: string(state.StepInProgress),
				NewValue: string(state.StepCompleted), NewValueDesc: string(state.StepCompleted),
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

// SkipStep administrative transition of a pending step straight to SKIPPED.
// No end time is recorded, so the next step's wait time stays null.
func SkipStep(stepId types.ID, s *session.Session) (*domain.WorkflowStep, error) {
	if !s.Perms.HasSystemAdminRole() {
		return nil, bizerror.ErrForbidden
	}

	var updated domain.WorkflowStep
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		step, instance, err := findStepAndInstance(tx, stepId)
		if err != nil {
			return err
		}
		if instance.Status.IsTerminal() {
			return bizerror.ErrInvalidState
		}
		if !step.Status.CanTransitTo(state.StepSkipped) {
			return bizerror.ErrInvalidState
		}

		ret := tx.Model(&domain.WorkflowStep{}).
			Where("id = ? AND status = ?", stepId, state.StepPending).
			Update("status", state.StepSkipped)
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		return tx.Where(&domain.WorkflowStep{ID: stepId}).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func findStepAndInstance(tx *gorm.DB, stepId types.ID) (*domain.WorkflowStep, *domain.WorkflowInstance, error) {
	step := domain.WorkflowStep{}
	if err := tx.Where(&domain.WorkflowStep{ID: stepId}).First(&step).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	instance := domain.WorkflowInstance{}
	if err := tx.Where(&domain.WorkflowInstance{ID: step.WorkflowID}).First(&instance).Error; err != nil {
		return nil, nil, err
	}
	return &step, &instance, nil
}
