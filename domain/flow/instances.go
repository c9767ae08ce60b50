package flow

import (
	"errors"
	"steward/bizerror"
	"steward/domain"
	"steward/domain/state"
	"steward/event"
	"steward/idgen"
	"steward/persistence"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	instanceIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})
	stepIdWorker     = sonyflake.NewSonyflake(sonyflake.Settings{})
	taskIdWorker     = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateInstanceFunc   = CreateInstance
	DetailInstanceFunc   = DetailInstance
	QueryInstancesFunc   = QueryInstances
	CompleteWorkflowFunc = CompleteWorkflow
	CancelWorkflowFunc   = CancelWorkflow
)

// CreateInstance persists a workflow instance with all of its steps and
// tasks in one transaction. The aggregate is never partially created and the
// step/task tree is immutable afterwards except for statuses.
func CreateInstance(c *domain.WorkflowInstanceCreation, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
	if s == nil || s.Identity.ID.IsZero() {
		return nil, bizerror.ErrForbidden
	}
	if len(c.Steps) == 0 {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("steps must not be empty")}
	}
	lastOrder := 0
	for _, stepCreation := range c.Steps {
		if stepCreation.Order <= lastOrder {
			return nil, &bizerror.ErrBadParam{Cause: errors.New("step orders must be unique and strictly increasing")}
		}
		lastOrder = stepCreation.Order
	}

	now := types.CurrentTimestamp()
	detail := &domain.WorkflowInstanceDetail{
		WorkflowInstance: domain.WorkflowInstance{
			ID:             idgen.NextID(instanceIdWorker),
			WorkflowTypeID: c.WorkflowTypeID,
			Name:           c.Name,
			Status:         state.WorkflowPending,
			CreateTime:     now,
		},
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&detail.WorkflowInstance).Error; err != nil {
			return err
		}
		for _, stepCreation := range c.Steps {
			stepDetail := domain.StepDetail{
				WorkflowStep: domain.WorkflowStep{
					ID:             idgen.NextID(stepIdWorker),
					WorkflowID:     detail.ID,
					Name:           stepCreation.Name,
					Order:          stepCreation.Order,
					Status:         state.StepPending,
					WorkingGroupID: stepCreation.WorkingGroupID,
				},
			}
			if err := tx.Create(&stepDetail.WorkflowStep).Error; err != nil {
				return err
			}
			for _, taskCreation := range stepCreation.Tasks {
				task := domain.WorkflowTask{
					ID:         idgen.NextID(taskIdWorker),
					StepID:     stepDetail.ID,
					WorkflowID: detail.ID,
					Name:       taskCreation.Name,
					AssigneeID: taskCreation.AssigneeID,
					Status:     state.TaskPending,
				}
				if err := tx.Create(&task).Error; err != nil {
					return err
				}
				stepDetail.Tasks = append(stepDetail.Tasks, task)
			}
			detail.Steps = append(detail.Steps, stepDetail)
		}

		ev = event.CreateEvent(event.SourceTypeWorkflow, detail.ID, detail.Name, event.EventCategoryCreated,
			nil, &s.Identity, now, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return detail, nil
}

// CompleteWorkflow closes an instance once every step is terminal. The step
// scan and the guarded status update run in one transaction so a step started
// concurrently can not slip in between check and write.
func CompleteWorkflow(workflowId types.ID, s *session.Session) (*domain.WorkflowInstance, error) {
	var updated domain.WorkflowInstance
	var ev *event.EventRecord
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		instance := domain.WorkflowInstance{}
		if err := tx.Where(&domain.WorkflowInstance{ID: workflowId}).First(&instance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if !instance.Status.CanTransitTo(state.WorkflowCompleted) {
			return bizerror.ErrInvalidState
		}

		var steps []domain.WorkflowStep
		if err := tx.Where(&domain.WorkflowStep{WorkflowID: workflowId}).Find(&steps).Error; err != nil {
			return err
		}
		var nonTerminal []types.ID
		for _, step := range steps {
			if !step.Status.IsTerminal() {
				nonTerminal = append(nonTerminal, step.ID)
			}
		}
		if len(nonTerminal) > 0 {
			return &bizerror.PreconditionFailedError{WorkflowID: workflowId, StepIDs: nonTerminal}
		}

		ret := tx.Model(&domain.WorkflowInstance{}).
			Where("id = ? AND status IN (?)", workflowId, []state.WorkflowStatus{state.WorkflowPending, state.WorkflowInProgress}).
			Update(&domain.WorkflowInstance{Status: state.WorkflowCompleted, CompleteTime: now})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		if err := tx.Where(&domain.WorkflowInstance{ID: workflowId}).First(&updated).Error; err != nil {
			return err
		}

		ev = event.CreateEvent(event.SourceTypeWorkflow, instance.ID, instance.Name, event.EventCategoryStatusUpdated,
			[]event.UpdatedProperty{{
				PropertyName: "Status", PropertyDesc: "Status",
				OldValue: string(instance.Status), OldValueDesc: string(instance.Status),
				NewValue: string(state.WorkflowCompleted), NewValueDesc: string(state.WorkflowCompleted),
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

// CancelWorkflow administrative halt of a pending or running instance.
// Steps and tasks keep their statuses; a cancelled workflow accepts no
// further transitions.
func CancelWorkflow(workflowId types.ID, s *session.Session) (*domain.WorkflowInstance, error) {
	if !s.Perms.HasSystemAdminRole() {
		return nil, bizerror.ErrForbidden
	}

	var updated domain.WorkflowInstance
	var ev *event.EventRecord
	now := types.CurrentTimestamp()

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		instance := domain.WorkflowInstance{}
		if err := tx.Where(&domain.WorkflowInstance{ID: workflowId}).First(&instance).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if !instance.Status.CanTransitTo(state.WorkflowCancelled) {
			return bizerror.ErrInvalidState
		}

		ret := tx.Model(&domain.WorkflowInstance{}).
			Where("id = ? AND status IN (?)", workflowId, []state.WorkflowStatus{state.WorkflowPending, state.WorkflowInProgress}).
			Update(&domain.WorkflowInstance{Status: state.WorkflowCancelled, CompleteTime: now})
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected != 1 {
			return bizerror.ErrConflict
		}

		if err := tx.Where(&domain.WorkflowInstance{ID: workflowId}).First(&updated).Error; err != nil {
			return err
		}

		ev = event.CreateEvent(event.SourceTypeWorkflow, instance.ID, instance.Name, event.EventCategoryStatusUpdated,
			[]event.UpdatedProperty{{
				PropertyName: "Status", PropertyDesc: "Status",
				OldValue: string(instance.Status), OldValueDesc: string(instance.Status),
				NewValue: string(state.WorkflowCancelled), NewValueDesc: string(state.WorkflowCancelled),
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

func DetailInstance(workflowId types.ID, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
	detail := domain.WorkflowInstanceDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	if err := db.Where(&domain.WorkflowInstance{ID: workflowId}).First(&detail.WorkflowInstance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}

	var steps []domain.WorkflowStep
	if err := db.Where(&domain.WorkflowStep{WorkflowID: workflowId}).Order("order_num ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	var tasks []domain.WorkflowTask
	if err := db.Where(&domain.WorkflowTask{WorkflowID: workflowId}).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	tasksByStep := map[types.ID][]domain.WorkflowTask{}
	for _, task := range tasks {
		tasksByStep[task.StepID] = append(tasksByStep[task.StepID], task)
	}
	for _, step := range steps {
		detail.Steps = append(detail.Steps, domain.StepDetail{WorkflowStep: step, Tasks: tasksByStep[step.ID]})
	}
	return &detail, nil
}

func QueryInstances(q *domain.WorkflowInstanceQuery, s *session.Session) ([]domain.WorkflowInstance, error) {
	var instances []domain.WorkflowInstance
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	query := db.Model(&domain.WorkflowInstance{})
	if !q.WorkflowTypeID.IsZero() {
		query = query.Where(&domain.WorkflowInstance{WorkflowTypeID: q.WorkflowTypeID})
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if err := query.Order("create_time DESC").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}
