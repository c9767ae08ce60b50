package attachment

import (
	"errors"
	"io"
	"steward/bizerror"
	"steward/client/oss"
	"steward/domain"
	"steward/idgen"
	"steward/persistence"
	"steward/session"

	aliyun "github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	attachmentIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateTaskAttachmentFunc = CreateTaskAttachment
	ListTaskAttachmentsFunc  = ListTaskAttachments
	DetailTaskAttachmentFunc = DetailTaskAttachment
)

// TaskAttachment metadata of a work report file (maintenance photo, receipt)
// attached to a task. Bytes live in the object bucket under ObjectKey.
type TaskAttachment struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	TaskID     types.ID `json:"taskId"`
	WorkflowID types.ID `json:"workflowId"`

	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	ObjectKey   string `json:"objectKey"`

	UploaderID types.ID        `json:"uploaderId"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *TaskAttachment) TableName() string {
	return "task_attachments"
}

func CreateTaskAttachment(taskId types.ID, fileName, contentType string, content io.Reader, s *session.Session) (*TaskAttachment, error) {
	var record *TaskAttachment
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		task, step, err := findTaskAndStep(tx, taskId)
		if err != nil {
			return err
		}
		if !s.Perms.HasSystemAdminRole() && !domain.CanActOnTask(s, task, step) {
			return bizerror.ErrForbidden
		}

		id := idgen.NextID(attachmentIdWorker)
		r := TaskAttachment{
			ID: id, TaskID: task.ID, WorkflowID: task.WorkflowID,
			FileName: fileName, ContentType: contentType,
			ObjectKey:  "task-attachments/" + id.String(),
			UploaderID: s.Identity.ID, CreateTime: types.CurrentTimestamp(),
		}
		if err := oss.PutObjectFunc(r.ObjectKey, content, s); err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		record = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func ListTaskAttachments(taskId types.ID, s *session.Session) ([]TaskAttachment, error) {
	var records []TaskAttachment
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	task, step, err := findTaskAndStep(db, taskId)
	if err != nil {
		return nil, err
	}
	if !s.Perms.HasSystemAdminRole() && !domain.CanActOnTask(s, task, step) {
		return nil, bizerror.ErrForbidden
	}

	if err := db.Where(&TaskAttachment{TaskID: taskId}).Order("create_time ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DetailTaskAttachment returns the metadata and an open reader of the bytes.
// The caller owns closing the reader.
func DetailTaskAttachment(id types.ID, s *session.Session) (*TaskAttachment, io.ReadCloser, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	record := TaskAttachment{}
	if err := db.Where(&TaskAttachment{ID: id}).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}

	task, step, err := findTaskAndStep(db, record.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if !s.Perms.HasSystemAdminRole() && !domain.CanActOnTask(s, task, step) {
		return nil, nil, bizerror.ErrForbidden
	}

	content, err := oss.GetObjectFunc(record.ObjectKey, s)
	if err != nil {
		if serErr, ok := err.(aliyun.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	return &record, content, nil
}

func findTaskAndStep(db *gorm.DB, taskId types.ID) (*domain.WorkflowTask, *domain.WorkflowStep, error) {
	task := domain.WorkflowTask{}
	if err := db.Where(&domain.WorkflowTask{ID: taskId}).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, bizerror.ErrNotFound
		}
		return nil, nil, err
	}
	step := domain.WorkflowStep{}
	if err := db.Where(&domain.WorkflowStep{ID: task.StepID}).First(&step).Error; err != nil {
		return nil, nil, err
	}
	return &task, &step, nil
}
