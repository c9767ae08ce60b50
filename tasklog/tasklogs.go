package tasklog

import (
	"errors"
	"steward/bizerror"
	"steward/domain"
	"steward/idgen"
	"steward/persistence"
	"steward/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	taskLogIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	AppendTaskLogFunc        = AppendTaskLog
	ListTaskLogsFunc         = ListTaskLogs
	ListTaskLogsDirectlyFunc = ListTaskLogsDirectly
	LoadTaskLogsFunc         = LoadTaskLogs
)

type TaskLogAction string

const (
	ActionStart    = TaskLogAction("START")
	ActionComplete = TaskLogAction("COMPLETE")
	ActionCancel   = TaskLogAction("CANCEL")
)

// TaskLog is append-only: no update or delete path exists anywhere in the
// system, terminal tasks keep their full trail.
type TaskLog struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	TaskID     types.ID `json:"taskId"`
	WorkflowID types.ID `json:"workflowId"`

	Action        TaskLogAction `json:"action"`
	PerformerID   types.ID      `json:"performerId"`
	PerformerName string        `json:"performerName"`
	Description   string        `json:"description"`

	DurationMinutes *int64 `json:"durationMinutes"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *TaskLog) TableName() string {
	return "task_logs"
}

// AppendTaskLog persists one audit entry within the caller's transaction.
// Callers treat a failure as a warning, never as an operation failure.
func AppendTaskLog(record *TaskLog, tx *gorm.DB) error {
	if record.ID.IsZero() {
		record.ID = idgen.NextID(taskLogIdWorker)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = types.CurrentTimestamp()
	}
	return tx.Create(record).Error
}

func ListTaskLogs(taskId types.ID, s *session.Session) ([]TaskLog, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	task := domain.WorkflowTask{}
	if err := db.Where(&domain.WorkflowTask{ID: taskId}).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	step := domain.WorkflowStep{}
	if err := db.Where(&domain.WorkflowStep{ID: task.StepID}).First(&step).Error; err != nil {
		return nil, err
	}
	if !s.Perms.HasSystemAdminRole() && !domain.CanActOnTask(s, &task, &step) {
		return nil, bizerror.ErrForbidden
	}

	var records []TaskLog
	if err := db.Where(&TaskLog{TaskID: taskId}).Order("timestamp ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListTaskLogsDirectly used by trusted internal callers (index handlers).
func ListTaskLogsDirectly(taskId types.ID) ([]TaskLog, error) {
	var records []TaskLog
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	if err := db.Where(&TaskLog{TaskID: taskId}).Order("timestamp ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func LoadTaskLogs(page, size int) ([]TaskLog, error) {
	records := []TaskLog{}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	if err := db.Order("id ASC").Offset(offset).Limit(size).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
